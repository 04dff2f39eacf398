package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/currency"
)

// StaticSource serves fixed factors, typically from trip.yaml.
type StaticSource struct {
	factors map[string]decimal.Decimal
}

// NewStaticSource returns a source serving factors ("base units per unit of
// code"). Codes are normalized.
func NewStaticSource(factors map[string]decimal.Decimal) *StaticSource {
	s := &StaticSource{factors: make(map[string]decimal.Decimal, len(factors))}
	for code, f := range factors {
		s.factors[currency.Normalize(code)] = f
	}
	return s
}

func (s *StaticSource) Name() string { return SourceStatic }

// Rates returns the configured factors for targets it knows.
func (s *StaticSource) Rates(ctx context.Context, _ string, targets []string) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(targets))
	for _, code := range targets {
		if f, ok := s.factors[currency.Normalize(code)]; ok {
			out[currency.Normalize(code)] = f
		}
	}
	return out, nil
}
