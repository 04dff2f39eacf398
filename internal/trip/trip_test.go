package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/tripsplit/internal/balance"
	"github.com/cleared-dev/tripsplit/internal/config"
	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/ledger"
	"github.com/cleared-dev/tripsplit/internal/model"
	"github.com/cleared-dev/tripsplit/internal/rates"
	"github.com/cleared-dev/tripsplit/internal/settlement"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Rates(context.Context, string, []string) (map[string]decimal.Decimal, error) {
	return nil, errors.New("503 Service Unavailable")
}

// newTrip initializes a EUR trip using static rates and adds A, B, C.
func newTrip(t *testing.T, static map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := Init(dir, "Test", "EUR", func(c *config.Config) {
		c.Rates.Source = rates.SourceStatic
		c.Rates.Static = static
	})
	require.NoError(t, err)

	tr, err := Open(dir, nil)
	require.NoError(t, err)
	for _, name := range []string{"A", "B", "C"} {
		tr.Ledger().AddParticipant(name)
	}
	require.NoError(t, tr.Save())
	return dir
}

func addExpense(t *testing.T, tr *Trip, amount, cur string, payer int, sharers ...int) {
	t.Helper()
	_, err := tr.Ledger().AddExpense(ledger.AddExpenseParams{
		Description: "x",
		Amount:      dec(amount),
		Currency:    cur,
		PaidByID:    payer,
		SharedByIDs: sharers,
	})
	require.NoError(t, err)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir, "Lisbon", "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.BaseCurrency)

	_, err = Init(dir, "Lisbon", "EUR")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	_, err = Init(t.TempDir(), "Bad", "ZZZ")
	assert.Error(t, err)
}

func TestOpen_NotInitialized(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestBalances_PersistedLedger(t *testing.T) {
	dir := newTrip(t, nil)
	tr, err := Open(dir, nil)
	require.NoError(t, err)
	addExpense(t, tr, "90", "EUR", 1, 1, 2, 3)
	require.NoError(t, tr.Save())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	res, err := reopened.Balances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, balance.StatusComplete, res.Status)
	require.Len(t, res.Balances, 3)
	assert.Equal(t, "A", res.Balances[0].Participant.Name)
	assert.True(t, res.Balances[0].Amount.Equal(dec("60")))
}

func TestBalances_StaticRatesAndSkips(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dir := newTrip(t, map[string]string{"USD": "0.5"})
	tr, err := Open(dir, zap.New(core))
	require.NoError(t, err)

	addExpense(t, tr, "60", "USD", 2, 1, 2, 3)
	addExpense(t, tr, "100", "CHF", 1, 1, 2, 3)

	res, err := tr.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, balance.StatusPartial, res.Status)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "B", res.Balances[0].Participant.Name)
	assert.True(t, res.Balances[0].Amount.Equal(dec("20")))

	skipped := logs.FilterMessage("expense excluded from balances").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "conversion_unavailable", skipped[0].ContextMap()["reason"])
}

func TestBalances_SourceDown(t *testing.T) {
	dir := newTrip(t, nil)
	tr, err := Open(dir, nil, WithSource(failingSource{}))
	require.NoError(t, err)

	addExpense(t, tr, "30", "EUR", 1, 1, 2, 3)
	res, err := tr.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, balance.StatusComplete, res.Status, "base-only ledgers never need the source")

	addExpense(t, tr, "50", "USD", 2, 1, 2)
	res, err = tr.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, balance.StatusUnavailable, res.Status)

	table, err := tr.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currency.StatusFailed, table.Status())
	assert.ErrorIs(t, table.Err(), rates.ErrFetchFailed)
}

func TestBalances_ReloadKeepsDanglingExpenseExcluded(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir, "Test", "EUR")
	require.NoError(t, err)
	require.NoError(t, ledger.Save(dir, ledger.FromState(
		[]model.Participant{{ID: 1, Name: "A"}},
		[]model.Expense{{ID: 1, Amount: dec("100"), Currency: "EUR", PaidByID: 2, SharedByIDs: []int{1}}},
	)))

	tr, err := Open(dir, nil)
	require.NoError(t, err)
	tr.Ledger().AddParticipant("Newcomer")

	res, err := tr.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, balance.ReasonInvalidReference, res.Skipped[0].Reason)
	for _, b := range res.Balances {
		assert.True(t, b.Amount.IsZero(), "%s should have no balance", b.Participant.Name)
	}
}

func TestSettle_EmptyPlanWhenRatesDown(t *testing.T) {
	dir := newTrip(t, nil)
	tr, err := Open(dir, nil, WithSource(failingSource{}))
	require.NoError(t, err)
	addExpense(t, tr, "100", "USD", 1, 1, 2)

	plan, err := tr.Settle(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, plan.Entries)
	assert.Equal(t, balance.StatusUnavailable, plan.Balances.Status)
}

func TestSettle(t *testing.T) {
	dir := newTrip(t, nil)
	tr, err := Open(dir, nil)
	require.NoError(t, err)
	addExpense(t, tr, "90", "EUR", 1, 1, 2, 3)

	plan, err := tr.Settle(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, settlement.PolicySimplified, plan.Policy)
	require.Len(t, plan.Entries, 2)
	for _, e := range plan.Entries {
		assert.Equal(t, "A", e.To)
		assert.True(t, e.Amount.Equal(dec("30")))
		assert.False(t, e.Settled)
	}

	plan, err = tr.Settle(context.Background(), settlement.PolicyDetailed)
	require.NoError(t, err)
	assert.Equal(t, settlement.PolicyDetailed, plan.Policy)
	assert.Len(t, plan.Entries, 2)

	_, err = tr.Settle(context.Background(), settlement.Policy("nope"))
	assert.ErrorIs(t, err, settlement.ErrUnknownPolicy)
}

func TestAcknowledge(t *testing.T) {
	dir := newTrip(t, nil)
	tr, err := Open(dir, nil)
	require.NoError(t, err)
	addExpense(t, tr, "90", "EUR", 1, 1, 2, 3)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	entry, changed, err := tr.Acknowledge(ctx, "", 2, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, entry.Settled)

	_, changed, err = tr.Acknowledge(ctx, "", 2, now)
	require.NoError(t, err)
	assert.False(t, changed)

	// An unrelated expense reorders nothing for the acknowledged payment.
	tr.Ledger().AddParticipant("D")
	addExpense(t, tr, "10", "EUR", 4, 4)
	plan, err := tr.Settle(ctx, "")
	require.NoError(t, err)
	var settled []string
	for _, e := range plan.Entries {
		if e.Settled {
			settled = append(settled, e.Key)
		}
	}
	assert.Equal(t, []string{entry.Key}, settled)

	_, changed, err = tr.Unacknowledge(ctx, "", 2)
	require.NoError(t, err)
	assert.True(t, changed)

	_, _, err = tr.Acknowledge(ctx, "", 3, now)
	assert.ErrorIs(t, err, ErrNoSuchPayment)
	_, _, err = tr.Unacknowledge(ctx, "", 0)
	assert.ErrorIs(t, err, ErrNoSuchPayment)
}
