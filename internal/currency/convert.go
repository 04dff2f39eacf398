package currency

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	// ErrConversionUnavailable means the table has no rate for a currency.
	ErrConversionUnavailable = errors.New("conversion unavailable")
	// ErrRatesUnavailable means the table as a whole is absent, failed, or
	// scoped to another base currency.
	ErrRatesUnavailable = errors.New("rates unavailable")
)

// Convert returns amount expressed in base. Converting base to itself never
// consults the table. Failures match ErrConversionUnavailable or
// ErrRatesUnavailable; a zero amount is never returned in their place.
func Convert(amount decimal.Decimal, from, base string, table *RateTable) (decimal.Decimal, error) {
	from, base = Normalize(from), Normalize(base)
	if from == base {
		return amount, nil
	}

	switch table.Status() {
	case StatusReady:
	case StatusFailed:
		return decimal.Decimal{}, fmt.Errorf("%w: %w", ErrRatesUnavailable, table.Err())
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: rates for %s not fetched", ErrRatesUnavailable, base)
	}
	if table.Base() != base {
		return decimal.Decimal{}, fmt.Errorf("%w: table is in %s, not %s", ErrRatesUnavailable, table.Base(), base)
	}

	rate, ok := table.Rate(from)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s in %s", ErrConversionUnavailable, from, base)
	}
	return amount.Mul(rate), nil
}

// RequiredCurrencies returns the distinct codes among used that need a rate
// against base, in first-use order. An empty result means no fetch is needed.
func RequiredCurrencies(used []string, base string) []string {
	base = Normalize(base)
	var out []string
	for _, code := range used {
		code = Normalize(code)
		if code == "" || code == base || slices.Contains(out, code) {
			continue
		}
		out = append(out, code)
	}
	return out
}
