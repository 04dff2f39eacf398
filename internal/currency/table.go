package currency

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a RateTable.
type Status int

const (
	// StatusAbsent means rates have not been fetched yet.
	StatusAbsent Status = iota
	// StatusReady means the table holds usable rates.
	StatusReady
	// StatusFailed means the last fetch failed; Err holds the cause.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "absent"
	}
}

// RateTable maps currency codes to "base units per one unit of the code".
// A table is immutable once built; refreshes replace the whole table.
// A nil *RateTable behaves like an absent one.
type RateTable struct {
	base   string
	rates  map[string]decimal.Decimal
	status Status
	err    error
}

// NewRateTable returns a ready table for base. The base always maps to 1 and
// non-positive factors are dropped, so lookups for them fail like any other
// missing rate.
func NewRateTable(base string, rates map[string]decimal.Decimal) *RateTable {
	base = Normalize(base)
	t := &RateTable{base: base, rates: make(map[string]decimal.Decimal, len(rates)+1), status: StatusReady}
	for code, r := range rates {
		if r.IsPositive() {
			t.rates[Normalize(code)] = r
		}
	}
	t.rates[base] = decimal.NewFromInt(1)
	return t
}

// Absent returns a table that has not been fetched yet.
func Absent(base string) *RateTable {
	return &RateTable{base: Normalize(base), status: StatusAbsent}
}

// Failed returns a table whose fetch failed with err.
func Failed(base string, err error) *RateTable {
	if err == nil {
		err = errors.New("rate fetch failed")
	}
	return &RateTable{base: Normalize(base), status: StatusFailed, err: err}
}

// Base returns the currency the table converts into.
func (t *RateTable) Base() string {
	if t == nil {
		return ""
	}
	return t.base
}

// Status returns the table's state.
func (t *RateTable) Status() Status {
	if t == nil {
		return StatusAbsent
	}
	return t.status
}

// Err returns the fetch error of a failed table.
func (t *RateTable) Err() error {
	if t == nil {
		return nil
	}
	return t.err
}

// Rate returns the factor for code. Only ready tables have rates.
func (t *RateTable) Rate(code string) (decimal.Decimal, bool) {
	if t.Status() != StatusReady {
		return decimal.Decimal{}, false
	}
	r, ok := t.rates[Normalize(code)]
	return r, ok
}

// Codes returns the currencies with a known rate, sorted.
func (t *RateTable) Codes() []string {
	if t.Status() != StatusReady {
		return nil
	}
	return slices.Sorted(maps.Keys(t.rates))
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
