package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tripsplit/internal/currency"
)

func newRatesCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show exchange rates for the currencies in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			table, err := t.Rates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Base: %s (source: %s, status: %s)\n", table.Base(), t.Config().Rates.Source, table.Status())
			if table.Status() == currency.StatusFailed {
				fmt.Fprintf(out, "Error: %v\n", table.Err())
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "CURRENCY\t%s PER UNIT\n", table.Base())
			for _, code := range table.Codes() {
				rate, _ := table.Rate(code)
				fmt.Fprintf(tw, "%s\t%s\n", code, rate.String())
			}
			return tw.Flush()
		},
	}
}
