package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tripsplit/internal/balance"
	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/settlement"
)

func newSettleCommand(g *globals) *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Show who pays whom to settle the trip",
		Long: `Show the payments that bring every balance to zero.

The simplified policy uses as few payments as possible. The detailed policy
splits every debt across all creditors in proportion to what they are owed.
Use "settle ack <n>" once payment n has been made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePolicyFlag(policy)
			if err != nil {
				return err
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			plan, err := t.Settle(cmd.Context(), p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			base := t.Config().BaseCurrency
			if len(plan.Entries) == 0 {
				if plan.Balances.Status == balance.StatusComplete {
					fmt.Fprintln(out, "Everyone is settled up.")
				} else {
					fmt.Fprintln(out, "No payments can be computed from the expenses that could be applied.")
				}
				printStatus(out, plan.Balances)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "#\tFROM\tTO\tAMOUNT\tSETTLED\n")
			for i, e := range plan.Entries {
				mark := ""
				if e.Settled {
					mark = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, e.From, e.To, currency.Format(e.Amount, base), mark)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d payment(s), %s policy\n", len(plan.Entries), plan.Policy)
			printStatus(out, plan.Balances)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&policy, "policy", "", "settlement policy (simplified, detailed; default: from trip.yaml)")

	cmd.AddCommand(newAckCommand(g, &policy))
	cmd.AddCommand(newUnackCommand(g, &policy))

	return cmd
}

func newAckCommand(g *globals, policy *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <n>",
		Short: "Mark payment n of the plan as made",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, p, err := parsePaymentArgs(args[0], *policy)
			if err != nil {
				return err
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			entry, changed, err := t.Acknowledge(cmd.Context(), p, n, time.Now().UTC())
			if err != nil {
				return err
			}
			amount := currency.Format(entry.Amount, t.Config().BaseCurrency)
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Already settled: %s pays %s %s\n", entry.From, entry.To, amount)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settled: %s pays %s %s\n", entry.From, entry.To, amount)
			return nil
		},
	}
}

func newUnackCommand(g *globals, policy *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unack <n>",
		Short: "Clear the settled mark of payment n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, p, err := parsePaymentArgs(args[0], *policy)
			if err != nil {
				return err
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			entry, changed, err := t.Unacknowledge(cmd.Context(), p, n)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Not settled: %s pays %s\n", entry.From, entry.To)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared: %s pays %s\n", entry.From, entry.To)
			return nil
		},
	}
}

// parsePolicyFlag maps an empty flag to the zero Policy, which means "use the
// trip's configured policy".
func parsePolicyFlag(s string) (settlement.Policy, error) {
	if s == "" {
		return "", nil
	}
	return settlement.ParsePolicy(s)
}

func parsePaymentArgs(arg, policy string) (int, settlement.Policy, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, "", fmt.Errorf("invalid payment number %q: %w", arg, err)
	}
	p, err := parsePolicyFlag(policy)
	if err != nil {
		return 0, "", err
	}
	return n, p, nil
}
