// Package settlement turns net balances into payments that clear them.
//
// Two policies are offered. Simplified greedily matches the largest debtor
// with the largest creditor, giving few payments (at most creditors+debtors-1,
// not a guaranteed minimum). Detailed has every debtor pay every creditor in
// proportion to the creditor's share of total credit.
//
// Both are pure functions of the balance list and never modify it.
package settlement

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/model"
)

// Policy selects a settlement algorithm.
type Policy string

const (
	PolicySimplified Policy = "simplified"
	PolicyDetailed   Policy = "detailed"
)

// ErrUnknownPolicy is returned for policy names other than the two above.
var ErrUnknownPolicy = errors.New("unknown settlement policy")

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySimplified, PolicyDetailed:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Plan dispatches to the algorithm for policy.
func Plan(balances []model.Balance, policy Policy) ([]model.Transaction, error) {
	switch policy {
	case PolicySimplified:
		return Simplified(balances), nil
	case PolicyDetailed:
		return Detailed(balances), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

// party is a creditor (amount owed to them) or a debtor (amount they owe),
// always stored as a positive remaining amount.
type party struct {
	p      model.Participant
	amount decimal.Decimal
}

// parties splits balances into creditors and debtors, largest first. Amounts
// within Epsilon of zero belong to neither.
func parties(balances []model.Balance) (creditors, debtors []party) {
	for _, b := range balances {
		switch {
		case b.Amount.GreaterThan(currency.Epsilon):
			creditors = append(creditors, party{p: b.Participant, amount: b.Amount})
		case b.Amount.LessThan(currency.Epsilon.Neg()):
			debtors = append(debtors, party{p: b.Participant, amount: b.Amount.Neg()})
		}
	}
	byAmountDesc := func(a, b party) int { return b.amount.Cmp(a.amount) }
	slices.SortStableFunc(creditors, byAmountDesc)
	slices.SortStableFunc(debtors, byAmountDesc)
	return creditors, debtors
}

// Simplified matches debtors to creditors with two cursors. Each payment
// exhausts at least one side, so the plan has at most
// len(creditors)+len(debtors)-1 payments.
func Simplified(balances []model.Balance) []model.Transaction {
	creditors, debtors := parties(balances)

	var txs []model.Transaction
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amt := decimal.Min(d.amount, c.amount)
		if amt.GreaterThan(currency.Epsilon) {
			txs = append(txs, transaction(d.p, c.p, amt))
			d.amount = d.amount.Sub(amt)
			c.amount = c.amount.Sub(amt)
		}

		// Both sides are checked every round so an exact match advances both.
		// A remainder of exactly Epsilon also counts as done, otherwise the
		// loop could stall on a payment too small to emit.
		if d.amount.LessThanOrEqual(currency.Epsilon) {
			i++
		}
		if c.amount.LessThanOrEqual(currency.Epsilon) {
			j++
		}
	}
	return txs
}

// Detailed has each debtor pay each creditor debt * credit / totalCredit.
// Payments at or below Epsilon are dropped.
func Detailed(balances []model.Balance) []model.Transaction {
	creditors, debtors := parties(balances)
	if len(creditors) == 0 || len(debtors) == 0 {
		return nil
	}

	totalCredit := decimal.Zero
	for _, c := range creditors {
		totalCredit = totalCredit.Add(c.amount)
	}
	if totalCredit.LessThan(currency.Epsilon) {
		return nil
	}

	var txs []model.Transaction
	for _, d := range debtors {
		for _, c := range creditors {
			payment := d.amount.Mul(c.amount).Div(totalCredit)
			if payment.GreaterThan(currency.Epsilon) {
				txs = append(txs, transaction(d.p, c.p, payment))
			}
		}
	}
	return txs
}

func transaction(from, to model.Participant, amount decimal.Decimal) model.Transaction {
	return model.Transaction{FromID: from.ID, From: from.Name, ToID: to.ID, To: to.Name, Amount: amount}
}
