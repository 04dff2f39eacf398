// Package trip opens a trip directory and drives the flow from ledger to
// settlement plan.
package trip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/tripsplit/internal/acklog"
	"github.com/cleared-dev/tripsplit/internal/balance"
	"github.com/cleared-dev/tripsplit/internal/config"
	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/ledger"
	"github.com/cleared-dev/tripsplit/internal/rates"
	"github.com/cleared-dev/tripsplit/internal/settlement"
)

// ErrAlreadyInitialized is returned by Init when trip.yaml already exists.
var ErrAlreadyInitialized = errors.New("trip already initialized")

// ErrNoSuchPayment is returned when acknowledging a plan position that does
// not exist.
var ErrNoSuchPayment = errors.New("no such payment in plan")

// Trip is an opened trip directory.
type Trip struct {
	dir    string
	cfg    *config.Config
	ledger *ledger.Ledger
	acks   *acklog.Log
	rates  *rates.Provider
	log    *zap.Logger
}

// Option customizes Open.
type Option func(*options)

type options struct {
	source rates.Source
}

// WithSource overrides the rate source named in trip.yaml.
func WithSource(s rates.Source) Option {
	return func(o *options) { o.source = s }
}

// Init creates a new trip in dir with an empty ledger. configure funcs adjust
// the default config before it is validated and written.
func Init(dir, name, baseCurrency string, configure ...func(*config.Config)) (*config.Config, error) {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(name, baseCurrency)
	for _, fn := range configure {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trip dir: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return nil, err
	}
	if err := ledger.Save(dir, ledger.New()); err != nil {
		return nil, fmt.Errorf("writing ledger: %w", err)
	}
	return cfg, nil
}

// Open loads the trip in dir.
func Open(dir string, log *zap.Logger, opts ...Option) (*Trip, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := ledger.Load(dir)
	if err != nil {
		return nil, err
	}

	source := o.source
	if source == nil {
		source, err = sourceFor(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &Trip{
		dir:    dir,
		cfg:    cfg,
		ledger: l,
		acks:   acklog.New(dir),
		rates:  rates.NewProvider(source, log),
		log:    log,
	}, nil
}

func sourceFor(cfg *config.Config) (rates.Source, error) {
	static, err := cfg.StaticRates()
	if err != nil {
		return nil, err
	}
	registry := rates.NewRegistry(
		rates.NewHTTPSource(cfg.Rates.Endpoint, cfg.Rates.Timeout),
		rates.NewStaticSource(static),
	)
	source := registry.Get(cfg.Rates.Source)
	if source == nil {
		return nil, fmt.Errorf("unknown rate source %q (have %v)", cfg.Rates.Source, registry.Names())
	}
	return source, nil
}

// Config returns the trip configuration.
func (t *Trip) Config() *config.Config { return t.cfg }

// Ledger returns the trip's ledger. Mutations are persisted by Save.
func (t *Trip) Ledger() *ledger.Ledger { return t.ledger }

// Save writes the ledger back to the trip directory.
func (t *Trip) Save() error {
	return ledger.Save(t.dir, t.ledger)
}

// Rates returns a rate table covering the currencies currently in use,
// fetching only when that set or the base currency changed.
func (t *Trip) Rates(ctx context.Context) (*currency.RateTable, error) {
	return t.rates.Ensure(ctx, t.cfg.BaseCurrency, t.ledger.Currencies())
}

// Balances computes every participant's net balance.
func (t *Trip) Balances(ctx context.Context) (balance.Result, error) {
	table, err := t.Rates(ctx)
	if err != nil {
		return balance.Result{}, err
	}

	res := balance.Compute(t.ledger.Participants(), t.ledger.Expenses(), t.cfg.BaseCurrency, table, balance.Options{
		ExcludePayerShare: t.cfg.Split.ExcludePayerShare,
	})
	for _, s := range res.Skipped {
		t.log.Warn("expense excluded from balances",
			zap.Int("expense_id", s.Expense.ID),
			zap.String("currency", s.Expense.Currency),
			zap.String("reason", string(s.Reason)),
			zap.Error(s.Err),
		)
	}
	return res, nil
}

// Plan is a settlement plan with the balances it was derived from.
type Plan struct {
	Policy   settlement.Policy
	Balances balance.Result
	Entries  []settlement.Entry
}

// Settle plans payments with policy, or the configured policy when empty,
// and marks the ones already acknowledged.
func (t *Trip) Settle(ctx context.Context, policy settlement.Policy) (*Plan, error) {
	if policy == "" {
		p, err := settlement.ParsePolicy(t.cfg.Settlement.Policy)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	res, err := t.Balances(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := settlement.Plan(res.Balances, policy)
	if err != nil {
		return nil, err
	}
	acked, err := t.acks.Keys()
	if err != nil {
		return nil, err
	}

	return &Plan{
		Policy:   policy,
		Balances: res,
		Entries:  settlement.Annotate(txs, t.cfg.BaseCurrency, func(key string) bool { return acked[key] }),
	}, nil
}

// Acknowledge marks the n-th payment (1-based) of the plan as settled. It
// reports whether the mark is new.
func (t *Trip) Acknowledge(ctx context.Context, policy settlement.Policy, n int, now time.Time) (settlement.Entry, bool, error) {
	entry, err := t.entryAt(ctx, policy, n)
	if err != nil {
		return settlement.Entry{}, false, err
	}
	changed, err := t.acks.Ack(acklog.Entry{
		Key:            entry.Key,
		From:           entry.From,
		To:             entry.To,
		Amount:         currency.Round(entry.Amount, t.cfg.BaseCurrency),
		AcknowledgedAt: now,
	})
	if err != nil {
		return settlement.Entry{}, false, err
	}
	entry.Settled = true
	return entry, changed, nil
}

// Unacknowledge clears the settled mark of the n-th payment. It reports
// whether a mark was removed.
func (t *Trip) Unacknowledge(ctx context.Context, policy settlement.Policy, n int) (settlement.Entry, bool, error) {
	entry, err := t.entryAt(ctx, policy, n)
	if err != nil {
		return settlement.Entry{}, false, err
	}
	changed, err := t.acks.Unack(entry.Key)
	if err != nil {
		return settlement.Entry{}, false, err
	}
	entry.Settled = false
	return entry, changed, nil
}

func (t *Trip) entryAt(ctx context.Context, policy settlement.Policy, n int) (settlement.Entry, error) {
	plan, err := t.Settle(ctx, policy)
	if err != nil {
		return settlement.Entry{}, err
	}
	if n < 1 || n > len(plan.Entries) {
		return settlement.Entry{}, fmt.Errorf("%w: %d (plan has %d)", ErrNoSuchPayment, n, len(plan.Entries))
	}
	return plan.Entries[n-1], nil
}
