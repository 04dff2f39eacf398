package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/id"
	"github.com/cleared-dev/tripsplit/internal/ledger"
	"github.com/cleared-dev/tripsplit/internal/model"
)

func newExpenseCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"e"},
		Short:   "Manage trip expenses",
	}
	cmd.AddCommand(newExpenseAddCommand(g))
	cmd.AddCommand(newExpenseRemoveCommand(g))
	cmd.AddCommand(newExpenseListCommand(g))
	return cmd
}

func newExpenseAddCommand(g *globals) *cobra.Command {
	var desc, amount, cur string
	var paidBy int
	var sharedBy []int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record an expense paid by one participant and shared equally.

When --shared-by is omitted the expense is shared by every participant.
The currency defaults to the trip's base currency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cur == "" {
				cur = t.Config().BaseCurrency
			}
			if len(sharedBy) == 0 {
				for _, p := range t.Ledger().Participants() {
					sharedBy = append(sharedBy, p.ID)
				}
			}

			e, err := t.Ledger().AddExpense(ledger.AddExpenseParams{
				Description: desc,
				Amount:      amt,
				Currency:    cur,
				PaidByID:    paidBy,
				SharedByIDs: sharedBy,
			})
			if err != nil {
				return err
			}
			if err := t.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s %s\n", e.ID, e.Description, currency.Format(e.Amount, e.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid (required)")
	cmd.Flags().StringVar(&cur, "currency", "", "ISO currency code (default: base currency)")
	cmd.Flags().IntVar(&paidBy, "paid-by", 0, "id of the paying participant (required)")
	cmd.Flags().IntSliceVar(&sharedBy, "shared-by", nil, "ids of the sharing participants")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("paid-by")

	return cmd
}

func newExpenseRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eid, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid expense id %q: %w", args[0], err)
			}

			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			if !t.Ledger().RemoveExpense(eid) {
				fmt.Fprintf(cmd.OutOrStdout(), "No expense %d\n", eid)
				return nil
			}
			if err := t.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed expense %d\n", eid)
			return nil
		},
	}
}

func newExpenseListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, log, err := g.open()
			if err != nil {
				return err
			}
			defer log.Sync()

			l := t.Ledger()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDESCRIPTION\tAMOUNT\tPAID BY\tSHARED BY")
			for _, e := range l.Expenses() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					e.ID, e.Description, currency.Format(e.Amount, e.Currency),
					nameOf(l, e.PaidByID), id.FormatList(e.SharedByIDs))
			}
			return tw.Flush()
		},
	}
}

func nameOf(l *ledger.Ledger, participantID int) string {
	p, ok := l.Participant(participantID)
	if !ok {
		return fmt.Sprintf("#%d?", participantID)
	}
	return p.Name
}

// describe renders an expense for warnings.
func describe(e model.Expense) string {
	if e.Description == "" {
		return fmt.Sprintf("expense %d", e.ID)
	}
	return fmt.Sprintf("expense %d (%s)", e.ID, e.Description)
}
