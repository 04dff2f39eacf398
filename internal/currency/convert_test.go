package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvert_Identity(t *testing.T) {
	tables := map[string]*RateTable{
		"nil":    nil,
		"absent": Absent("EUR"),
		"failed": Failed("EUR", errors.New("boom")),
		"ready":  NewRateTable("EUR", map[string]decimal.Decimal{"USD": dec("0.9")}),
		"other":  NewRateTable("GBP", nil),
	}
	for name, table := range tables {
		for _, x := range []string{"0", "1", "90.125", "-3"} {
			got, err := Convert(dec(x), "EUR", "eur", table)
			require.NoError(t, err, "%s table", name)
			assert.True(t, got.Equal(dec(x)), "%s table: got %s, want %s", name, got, x)
		}
	}
}

func TestConvert_UsesRate(t *testing.T) {
	table := NewRateTable("EUR", map[string]decimal.Decimal{"USD": dec("0.92"), "jpy": dec("0.0062")})

	got, err := Convert(dec("100"), "USD", "EUR", table)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("92")), "got %s", got)

	got, err = Convert(dec("1000"), "JPY", "EUR", table)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("6.2")), "got %s", got)
}

func TestConvert_MissingRate(t *testing.T) {
	table := NewRateTable("EUR", map[string]decimal.Decimal{"USD": dec("0.92")})

	got, err := Convert(dec("100"), "CHF", "EUR", table)
	assert.ErrorIs(t, err, ErrConversionUnavailable)
	assert.True(t, got.IsZero())
}

func TestConvert_TableUnavailable(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		table *RateTable
	}{
		{"nil", nil},
		{"absent", Absent("EUR")},
		{"failed", Failed("EUR", boom)},
		{"wrong base", NewRateTable("GBP", map[string]decimal.Decimal{"USD": dec("0.8")})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(dec("1"), "USD", "EUR", tt.table)
			assert.ErrorIs(t, err, ErrRatesUnavailable)
		})
	}

	_, err := Convert(dec("1"), "USD", "EUR", Failed("EUR", boom))
	assert.ErrorIs(t, err, boom, "fetch cause is preserved")
}

func TestNewRateTable(t *testing.T) {
	table := NewRateTable("eur", map[string]decimal.Decimal{"USD": dec("0.9"), "XXX": dec("0"), "YYY": dec("-1")})

	assert.Equal(t, StatusReady, table.Status())
	assert.Equal(t, "EUR", table.Base())
	assert.Equal(t, []string{"EUR", "USD"}, table.Codes())

	r, ok := table.Rate("EUR")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromInt(1)))

	_, ok = table.Rate("XXX")
	assert.False(t, ok, "non-positive rates are dropped")
}

func TestFailed_DefaultError(t *testing.T) {
	table := Failed("EUR", nil)
	assert.Equal(t, StatusFailed, table.Status())
	assert.Error(t, table.Err())
	assert.Nil(t, table.Codes())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "failed", StatusFailed.String())
}

func TestRequiredCurrencies(t *testing.T) {
	tests := []struct {
		used []string
		base string
		want []string
	}{
		{[]string{"EUR", "USD", "usd", "JPY"}, "EUR", []string{"USD", "JPY"}},
		{[]string{"EUR", "eur"}, "EUR", nil},
		{nil, "EUR", nil},
		{[]string{"", "GBP"}, "EUR", []string{"GBP"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiredCurrencies(tt.used, tt.base), "used=%v", tt.used)
	}
}
