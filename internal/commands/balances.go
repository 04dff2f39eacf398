package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tripsplit/internal/balance"
	"github.com/cleared-dev/tripsplit/internal/currency"
)

func newBalancesCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "balances",
		Aliases: []string{"b"},
		Short:   "Show each participant's net balance",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := t.Balances(cmd.Context())
			if err != nil {
				return err
			}
			return printBalances(cmd.OutOrStdout(), res, t.Config().BaseCurrency)
		},
	}
}

func printBalances(out io.Writer, res balance.Result, base string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PARTICIPANT\tBALANCE\t")
	for _, b := range res.Balances {
		fmt.Fprintf(tw, "%s\t%s\t\n", b.Participant.Name, currency.Format(b.Amount, base))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printStatus(out, res)
	return nil
}

func printStatus(out io.Writer, res balance.Result) {
	switch res.Status {
	case balance.StatusUnavailable:
		fmt.Fprintln(out, "\nExchange rates are unavailable; figures leave out foreign-currency expenses.")
	case balance.StatusPartial:
		fmt.Fprintln(out, "\nSome expenses were left out of these figures.")
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "  skipped %s: %s\n", describe(s.Expense), s.Reason)
	}
}
