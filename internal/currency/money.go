package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance below which an amount counts as settled.
var Epsilon = decimal.New(1, -2)

// defaultFraction is used for codes go-money does not know.
const defaultFraction = 2

// Settled reports whether |d| < Epsilon.
func Settled(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// Known reports whether code is an ISO 4217 currency known to go-money.
func Known(code string) bool {
	return money.GetCurrency(Normalize(code)) != nil
}

// Fraction returns the number of minor-unit digits for code.
func Fraction(code string) int {
	if cur := money.GetCurrency(Normalize(code)); cur != nil {
		return cur.Fraction
	}
	return defaultFraction
}

// Round rounds d to the minor unit of code.
func Round(d decimal.Decimal, code string) decimal.Decimal {
	return d.Round(int32(Fraction(code)))
}

// Format renders d with code's symbol and minor-unit precision, e.g. "€1,234.50".
func Format(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(Normalize(code))
	if cur == nil {
		return d.StringFixed(defaultFraction) + " " + Normalize(code)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
