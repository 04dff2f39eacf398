package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newParticipantCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "participant",
		Aliases: []string{"p"},
		Short:   "Manage trip participants",
	}
	cmd.AddCommand(newParticipantAddCommand(g))
	cmd.AddCommand(newParticipantRemoveCommand(g))
	cmd.AddCommand(newParticipantListCommand(g))
	return cmd
}

func newParticipantAddCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("participant name must not be empty")
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			p := t.Ledger().AddParticipant(name)
			if err := t.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added participant %d: %s\n", p.ID, p.Name)
			return nil
		},
	}
}

func newParticipantRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a participant and the expenses that depend on them",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid participant id %q: %w", args[0], err)
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			p, _ := t.Ledger().Participant(pid)
			deleted, err := t.Ledger().RemoveParticipant(pid)
			if err != nil {
				return fmt.Errorf("participant %d: %w", pid, err)
			}
			if err := t.Save(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed participant %d: %s\n", p.ID, p.Name)
			for _, e := range deleted {
				fmt.Fprintf(out, "  deleted expense %d: %s\n", e.ID, e.Description)
			}
			return nil
		},
	}
}

func newParticipantListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List participants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, p := range t.Ledger().Participants() {
				fmt.Fprintf(tw, "%d\t%s\n", p.ID, p.Name)
			}
			return tw.Flush()
		},
	}
}
