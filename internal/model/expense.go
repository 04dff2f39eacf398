package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Expense is a single purchase paid by one participant and split equally
// among its sharers. The payer need not be a sharer.
type Expense struct {
	ID          int
	Description string
	Amount      decimal.Decimal // in Currency, always positive for ledger-created expenses
	Currency    string
	PaidByID    int
	SharedByIDs []int
}

// SharedBy reports whether participantID is one of the expense's sharers.
func (e Expense) SharedBy(participantID int) bool {
	return slices.Contains(e.SharedByIDs, participantID)
}

// Clone returns a copy that does not alias the sharer slice.
func (e Expense) Clone() Expense {
	e.SharedByIDs = slices.Clone(e.SharedByIDs)
	return e
}
