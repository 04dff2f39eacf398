package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/tripsplit/internal/buildinfo"
	"github.com/cleared-dev/tripsplit/internal/logging"
	"github.com/cleared-dev/tripsplit/internal/trip"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	dir      string
	logLevel string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "tripsplit",
		Short:   "Split shared trip expenses and settle up",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.dir, "dir", ".", "trip directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand(g))
	rootCmd.AddCommand(newParticipantCommand(g))
	rootCmd.AddCommand(newExpenseCommand(g))
	rootCmd.AddCommand(newRatesCommand(g))
	rootCmd.AddCommand(newBalancesCommand(g))
	rootCmd.AddCommand(newSettleCommand(g))

	return rootCmd
}

// open builds the logger and opens the trip in --dir.
func (g *globals) open() (*trip.Trip, *zap.Logger, error) {
	log, err := logging.New(g.logLevel)
	if err != nil {
		return nil, nil, err
	}
	t, err := trip.Open(g.dir, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, fmt.Errorf("opening trip in %s: %w", g.dir, err)
	}
	return t, log, nil
}
