// Package rates fetches currency conversion rates and keeps the current
// rate table for a trip.
package rates

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Names of the built-in sources.
const (
	SourceHTTP   = "http"
	SourceStatic = "static"
)

// ErrFetchFailed wraps every failure to obtain rates from a source.
var ErrFetchFailed = errors.New("rate fetch failed")

// Source supplies conversion factors. For each target it returns how many
// base units one unit of the target is worth. Targets the source does not
// know are left out of the result; the base is never requested.
type Source interface {
	Name() string
	Rates(ctx context.Context, base string, targets []string) (map[string]decimal.Decimal, error)
}

// Registry holds named sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates a registry holding sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds a source. Panics on duplicate name.
func (r *Registry) Register(s Source) {
	key := strings.ToLower(s.Name())
	if _, ok := r.sources[key]; ok {
		panic("duplicate rate source: " + key)
	}
	r.sources[key] = s
}

// Get returns the source called name, or nil.
func (r *Registry) Get(name string) Source {
	return r.sources[strings.ToLower(name)]
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.sources))
}
