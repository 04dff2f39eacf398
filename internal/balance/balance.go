// Package balance folds a trip's expenses into per-participant net balances
// in the base currency.
package balance

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/model"
)

// Status says how much of the ledger a Result reflects.
type Status int

const (
	// StatusComplete means every expense was applied.
	StatusComplete Status = iota
	// StatusPartial means some expenses were skipped for missing rates or
	// bad references; the rest were applied.
	StatusPartial
	// StatusUnavailable means the rate table itself is unusable and at
	// least one expense needed it. Balances are best-effort only.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusPartial:
		return "partial"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "complete"
	}
}

// SkipReason says why an expense was left out of the totals.
type SkipReason string

const (
	ReasonConversionUnavailable SkipReason = "conversion_unavailable"
	ReasonRatesUnavailable      SkipReason = "rates_unavailable"
	ReasonInvalidReference      SkipReason = "invalid_reference"
	ReasonInvalidExpense        SkipReason = "invalid_expense"
)

// Skipped records an expense that contributed nothing.
type Skipped struct {
	Expense model.Expense
	Reason  SkipReason
	Err     error
}

// Result is the outcome of Compute.
type Result struct {
	// Balances has one entry per participant, highest balance first.
	Balances []model.Balance
	Skipped  []Skipped
	Status   Status
}

// Options tunes the split rule.
type Options struct {
	// ExcludePayerShare leaves the payer out of the share denominator even
	// when they are listed as a sharer. Off by default.
	ExcludePayerShare bool
}

var errNoSharers = errors.New("expense has no sharers")

// Compute returns every participant's net balance in base. Expenses that
// cannot be converted or that reference missing participants are skipped
// whole and reported in Result.Skipped. Compute is deterministic: the same
// inputs always give the same output, in the same order.
func Compute(participants []model.Participant, expenses []model.Expense, base string, table *currency.RateTable, opts Options) Result {
	index := make(map[int]int, len(participants))
	totals := make([]decimal.Decimal, len(participants))
	for i, p := range participants {
		index[p.ID] = i
	}

	var res Result
	for _, e := range expenses {
		sharers, reason, err := checkExpense(e, index)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Expense: e, Reason: reason, Err: err})
			continue
		}

		amount, err := currency.Convert(e.Amount, e.Currency, base, table)
		if err != nil {
			reason := ReasonConversionUnavailable
			if errors.Is(err, currency.ErrRatesUnavailable) {
				reason = ReasonRatesUnavailable
			}
			res.Skipped = append(res.Skipped, Skipped{Expense: e, Reason: reason, Err: err})
			continue
		}

		if opts.ExcludePayerShare {
			sharers = slices.DeleteFunc(sharers, func(pid int) bool { return pid == e.PaidByID })
			if len(sharers) == 0 {
				continue // payer covered only themselves
			}
		}

		share := amount.Div(decimal.NewFromInt(int64(len(sharers))))
		payer := index[e.PaidByID]
		totals[payer] = totals[payer].Add(amount)
		for _, pid := range sharers {
			i := index[pid]
			totals[i] = totals[i].Sub(share)
		}
	}

	res.Balances = make([]model.Balance, len(participants))
	for i, p := range participants {
		res.Balances[i] = model.Balance{Participant: p, Amount: totals[i]}
	}
	slices.SortStableFunc(res.Balances, func(a, b model.Balance) int {
		return b.Amount.Cmp(a.Amount)
	})

	res.Status = status(res.Skipped)
	return res
}

// Total sums balances. For a complete result it is zero within Epsilon.
func Total(balances []model.Balance) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.Amount)
	}
	return sum
}

// checkExpense returns the deduplicated sharer ids of a usable expense.
func checkExpense(e model.Expense, index map[int]int) ([]int, SkipReason, error) {
	if !e.Amount.IsPositive() {
		return nil, ReasonInvalidExpense, fmt.Errorf("amount must be positive, got %s", e.Amount)
	}
	if _, ok := index[e.PaidByID]; !ok {
		return nil, ReasonInvalidReference, fmt.Errorf("payer %d is not a participant", e.PaidByID)
	}
	sharers := make([]int, 0, len(e.SharedByIDs))
	for _, pid := range e.SharedByIDs {
		if _, ok := index[pid]; !ok {
			return nil, ReasonInvalidReference, fmt.Errorf("sharer %d is not a participant", pid)
		}
		if !slices.Contains(sharers, pid) {
			sharers = append(sharers, pid)
		}
	}
	if len(sharers) == 0 {
		return nil, ReasonInvalidExpense, errNoSharers
	}
	return sharers, "", nil
}

func status(skipped []Skipped) Status {
	if len(skipped) == 0 {
		return StatusComplete
	}
	for _, s := range skipped {
		if s.Reason == ReasonRatesUnavailable {
			return StatusUnavailable
		}
	}
	return StatusPartial
}
