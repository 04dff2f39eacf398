package rates

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cleared-dev/tripsplit/internal/currency"
)

// snapshot pairs a table with the (base, targets) scope it was built for.
type snapshot struct {
	table *currency.RateTable
	scope string
}

// Provider owns the current rate table. Readers call Current at any time and
// never block: during a fetch they see the previous table. Each refresh
// swaps in a whole new table. Failures produce a failed table and are not
// retried automatically.
type Provider struct {
	source  Source
	log     *zap.Logger
	current atomic.Pointer[snapshot]
	loading atomic.Bool
}

// NewProvider returns a provider fetching from source. A nil logger
// disables logging.
func NewProvider(source Source, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{source: source, log: log.Named("rates")}
}

// Current returns the latest table; an absent table before the first fetch.
func (p *Provider) Current() *currency.RateTable {
	if s := p.current.Load(); s != nil {
		return s.table
	}
	return currency.Absent("")
}

// Loading reports whether a fetch is in flight.
func (p *Provider) Loading() bool {
	return p.loading.Load()
}

// Ensure returns the current table if it was built for the same base and
// set of needed currencies, and refreshes otherwise. A failed table for the
// same scope is returned as is.
func (p *Provider) Ensure(ctx context.Context, base string, used []string) (*currency.RateTable, error) {
	targets := currency.RequiredCurrencies(used, base)
	if s := p.current.Load(); s != nil && s.scope == scopeKey(base, targets) {
		return s.table, nil
	}
	return p.refresh(ctx, base, targets)
}

// Refresh fetches a new table for the currencies in used. Fetch failures
// yield a failed table, not an error; the error is only set when ctx is
// done, in which case the previous table stays current.
func (p *Provider) Refresh(ctx context.Context, base string, used []string) (*currency.RateTable, error) {
	return p.refresh(ctx, base, currency.RequiredCurrencies(used, base))
}

func (p *Provider) refresh(ctx context.Context, base string, targets []string) (*currency.RateTable, error) {
	base = currency.Normalize(base)
	scope := scopeKey(base, targets)

	if len(targets) == 0 {
		table := currency.NewRateTable(base, nil)
		p.current.Store(&snapshot{table: table, scope: scope})
		return table, nil
	}

	p.loading.Store(true)
	defer p.loading.Store(false)

	log := p.log.With(zap.String("source", p.source.Name()), zap.String("base", base), zap.Strings("targets", targets))
	log.Debug("fetching rates")

	rates, err := p.source.Rates(ctx, base, targets)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("rate fetch cancelled", zap.Error(ctxErr))
		return p.Current(), ctxErr
	}

	var table *currency.RateTable
	if err != nil {
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		log.Warn("rate fetch failed", zap.Error(err))
		table = currency.Failed(base, err)
	} else {
		table = currency.NewRateTable(base, rates)
		var missing []string
		for _, code := range targets {
			if _, ok := table.Rate(code); !ok {
				missing = append(missing, code)
			}
		}
		if len(missing) > 0 {
			log.Warn("rates missing from source", zap.Strings("missing", missing))
		} else {
			log.Debug("rates fetched")
		}
	}

	p.current.Store(&snapshot{table: table, scope: scope})
	return table, nil
}

func scopeKey(base string, targets []string) string {
	sorted := slices.Sorted(slices.Values(targets))
	return currency.Normalize(base) + ":" + strings.Join(sorted, ",")
}
