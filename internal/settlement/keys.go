package settlement

import (
	"fmt"

	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/model"
)

// Entry is a planned payment annotated with its acknowledgment key.
type Entry struct {
	model.Transaction
	Key     string
	Settled bool
}

// Keys returns a stable key per transaction: payer, payee, and the amount
// rounded to base's minor unit, plus a counter that tells identical payments
// apart. Unlike a list index, a key survives unrelated changes to the plan.
// Participants appear as "id:name" so namesakes get distinct keys.
func Keys(txs []model.Transaction, base string) []string {
	seen := make(map[string]int, len(txs))
	keys := make([]string, len(txs))
	for i, tx := range txs {
		tuple := fmt.Sprintf("%d:%s|%d:%s|%s", tx.FromID, tx.From, tx.ToID, tx.To,
			currency.Round(tx.Amount, base).StringFixed(int32(currency.Fraction(base))))
		keys[i] = fmt.Sprintf("%s|%d", tuple, seen[tuple])
		seen[tuple]++
	}
	return keys
}

// Annotate pairs txs with their keys and marks those reported settled.
func Annotate(txs []model.Transaction, base string, settled func(key string) bool) []Entry {
	keys := Keys(txs, base)
	entries := make([]Entry, len(txs))
	for i, tx := range txs {
		entries[i] = Entry{Transaction: tx, Key: keys[i], Settled: settled != nil && settled(keys[i])}
	}
	return entries
}
