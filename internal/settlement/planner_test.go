package settlement

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tripsplit/internal/balance"
	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// balances builds a descending balance list from name/amount pairs.
func balances(pairs ...any) []model.Balance {
	var out []model.Balance
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, model.Balance{
			Participant: model.Participant{ID: i/2 + 1, Name: pairs[i].(string)},
			Amount:      dec(pairs[i+1].(string)),
		})
	}
	slices.SortStableFunc(out, func(a, b model.Balance) int { return b.Amount.Cmp(a.Amount) })
	return out
}

func render(txs []model.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = fmt.Sprintf("%s->%s %s", tx.From, tx.To, tx.Amount.StringFixed(2))
	}
	return out
}

func TestSimplified_ThreeWaySplit(t *testing.T) {
	participants := []model.Participant{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	expenses := []model.Expense{{ID: 1, Amount: dec("90"), Currency: "EUR", PaidByID: 1, SharedByIDs: []int{1, 2, 3}}}
	res := balance.Compute(participants, expenses, "EUR", nil, balance.Options{})

	txs := Simplified(res.Balances)
	assert.ElementsMatch(t, []string{"B->A 30.00", "C->A 30.00"}, render(txs))
	for _, tx := range txs {
		assert.Equal(t, 1, tx.ToID)
	}
}

func TestSimplified_LargestFirst(t *testing.T) {
	bs := balances("A", "70", "B", "30", "C", "-10", "D", "-90")
	assert.Equal(t, []string{"D->A 70.00", "D->B 20.00", "C->B 10.00"}, render(Simplified(bs)))
}

func TestSimplified_ExactMatchAdvancesBoth(t *testing.T) {
	bs := balances("A", "50", "B", "20", "C", "-50", "D", "-20")
	assert.Equal(t, []string{"C->A 50.00", "D->B 20.00"}, render(Simplified(bs)))
}

func TestSimplified_IgnoresDust(t *testing.T) {
	bs := balances("A", "0.005", "B", "-0.004", "C", "10", "D", "-10.001")
	assert.Equal(t, []string{"D->C 10.00"}, render(Simplified(bs)))
}

func TestSimplified_RemainderOfEpsilonTerminates(t *testing.T) {
	bs := balances("A", "10.01", "B", "-10")
	assert.Equal(t, []string{"B->A 10.00"}, render(Simplified(bs)))
}

func TestPlans_Empty(t *testing.T) {
	for _, bs := range [][]model.Balance{
		nil,
		balances("A", "0", "B", "0"),
		balances("A", "10", "B", "0.001"),
		balances("A", "-10", "B", "-0.001"),
	} {
		assert.Empty(t, Simplified(bs))
		assert.Empty(t, Detailed(bs))
	}
}

func TestDetailed_Proportional(t *testing.T) {
	bs := balances("A", "60", "B", "20", "C", "-40", "D", "-40")
	assert.Equal(t, []string{
		"C->A 30.00", "C->B 10.00",
		"D->A 30.00", "D->B 10.00",
	}, render(Detailed(bs)))
}

func TestDetailed_DropsTinyPayments(t *testing.T) {
	bs := balances("A", "1000", "B", "0.5", "C", "-1000.5")
	txs := Detailed(bs)
	require.Len(t, txs, 2)

	bs = balances("A", "1000", "B", "0.01", "C", "-1000.01")
	assert.Len(t, Detailed(bs), 1, "a balance of 0.01 is already settled")
}

func TestPlan(t *testing.T) {
	bs := balances("A", "60", "B", "20", "C", "-40", "D", "-40")

	txs, err := Plan(bs, PolicySimplified)
	require.NoError(t, err)
	assert.Equal(t, render(Simplified(bs)), render(txs))

	txs, err = Plan(bs, PolicyDetailed)
	require.NoError(t, err)
	assert.Equal(t, render(Detailed(bs)), render(txs))

	_, err = Plan(bs, Policy("random"))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPlan_DoesNotMutateBalances(t *testing.T) {
	bs := balances("A", "60", "B", "20", "C", "-40", "D", "-40")
	before := render(nil)
	for _, b := range bs {
		before = append(before, b.Amount.String())
	}

	_, _ = Plan(bs, PolicySimplified)
	_, _ = Plan(bs, PolicyDetailed)

	var after []string
	for _, b := range bs {
		after = append(after, b.Amount.String())
	}
	assert.Equal(t, before, after)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Detailed ")
	require.NoError(t, err)
	assert.Equal(t, PolicyDetailed, p)

	p, err = ParsePolicy("simplified")
	require.NoError(t, err)
	assert.Equal(t, PolicySimplified, p)

	_, err = ParsePolicy("minimal")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

// randomBalances returns a zero-sum list of whole-unit balances. Every party
// owes or is owed at least 1, so no proportional payment falls below Epsilon.
func randomBalances(r *rand.Rand) (bs []model.Balance, creditors, debtors int) {
	creditors = 1 + r.IntN(5)
	debtors = 1 + r.IntN(5)
	total := decimal.Zero
	next := 1
	add := func(amount decimal.Decimal) {
		bs = append(bs, model.Balance{Participant: model.Participant{ID: next, Name: fmt.Sprintf("P%d", next)}, Amount: amount})
		next++
	}
	for range creditors {
		c := decimal.NewFromInt(int64(10 + r.IntN(91)))
		total = total.Add(c)
		add(c)
	}
	share := total.Div(decimal.NewFromInt(int64(debtors))).Round(0)
	rest := total
	for j := range debtors {
		d := share
		if j == debtors-1 {
			d = rest
		}
		rest = rest.Sub(d)
		add(d.Neg())
	}
	r.Shuffle(len(bs), func(i, j int) { bs[i], bs[j] = bs[j], bs[i] })
	slices.SortStableFunc(bs, func(a, b model.Balance) int { return b.Amount.Cmp(a.Amount) })
	return bs, creditors, debtors
}

func TestPolicies_Conservation(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for run := 0; run < 200; run++ {
		bs, nc, nd := randomBalances(r)
		for _, policy := range []Policy{PolicySimplified, PolicyDetailed} {
			txs, err := Plan(bs, policy)
			require.NoError(t, err)

			flow := map[int]decimal.Decimal{}
			for _, tx := range txs {
				assert.True(t, tx.Amount.GreaterThan(currency.Epsilon))
				flow[tx.FromID] = flow[tx.FromID].Sub(tx.Amount)
				flow[tx.ToID] = flow[tx.ToID].Add(tx.Amount)
			}
			for _, b := range bs {
				diff := flow[b.Participant.ID].Sub(b.Amount)
				assert.True(t, currency.Settled(diff), "run %d %s: %s has %s, settled %s", run, policy, b.Participant.Name, b.Amount, flow[b.Participant.ID])
			}

			if policy == PolicySimplified {
				assert.LessOrEqual(t, len(txs), nc+nd-1, "run %d", run)
			} else {
				assert.Equal(t, nc*nd, len(txs), "run %d", run)
			}
		}
	}
}

func TestPolicies_Idempotent(t *testing.T) {
	bs, _, _ := randomBalances(rand.New(rand.NewPCG(9, 9)))
	for _, policy := range []Policy{PolicySimplified, PolicyDetailed} {
		first, err := Plan(bs, policy)
		require.NoError(t, err)
		second, err := Plan(bs, policy)
		require.NoError(t, err)
		assert.Equal(t, render(first), render(second))
	}
}
