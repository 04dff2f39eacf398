package model

import "github.com/shopspring/decimal"

// Balance is a participant's net position in the base currency.
// Positive = owed money, negative = owes money.
type Balance struct {
	Participant Participant
	Amount      decimal.Decimal
}

// Transaction is one payment in a settlement plan.
type Transaction struct {
	FromID int
	From   string
	ToID   int
	To     string
	Amount decimal.Decimal // base currency, always positive
}
