package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tripsplit/internal/config"
	"github.com/cleared-dev/tripsplit/internal/rates"
	"github.com/cleared-dev/tripsplit/internal/trip"
)

func newInitCommand(g *globals) *cobra.Command {
	var name string
	var base string
	var source string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new trip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.dir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg, err := trip.Init(absDir, name, base, func(c *config.Config) {
				c.Rates.Source = source
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized trip %q at %s (base currency %s)\n", name, absDir, cfg.BaseCurrency)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "trip name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&base, "base", "EUR", "reporting currency")
	cmd.Flags().StringVar(&source, "rates", rates.SourceHTTP, "rate source (http, static)")

	return cmd
}
