package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tripsplit/internal/currency"
)

// DefaultEndpoint is a Frankfurter-compatible rates API.
const DefaultEndpoint = "https://api.frankfurter.app"

// HTTPSource fetches rates from a Frankfurter-compatible API:
//
//	GET {endpoint}/latest?from=EUR&to=USD,JPY
//	{"base":"EUR","rates":{"USD":1.08,"JPY":161.2}}
//
// The API quotes targets per base unit, so factors are inverted.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSource returns a source for endpoint. A zero timeout means none.
func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPSource{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return SourceHTTP }

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rates queries the API. Errors match ErrFetchFailed, except context
// cancellation which is returned as is.
func (s *HTTPSource) Rates(ctx context.Context, base string, targets []string) (map[string]decimal.Decimal, error) {
	base = currency.Normalize(base)
	if len(targets) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	codes := make([]string, len(targets))
	for i, t := range targets {
		codes[i] = currency.Normalize(t)
	}

	q := url.Values{}
	q.Set("from", base)
	q.Set("to", strings.Join(codes, ","))
	addr := s.endpoint + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s%s: %s", ErrFetchFailed, req.URL.Host, req.URL.Path, resp.Status)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrFetchFailed, err)
	}
	if body.Base != "" && currency.Normalize(body.Base) != base {
		return nil, fmt.Errorf("%w: asked for base %s, got %s", ErrFetchFailed, base, body.Base)
	}

	out := make(map[string]decimal.Decimal, len(body.Rates))
	for code, quote := range body.Rates {
		if !quote.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive rate %s for %s", ErrFetchFailed, quote, code)
		}
		out[currency.Normalize(code)] = decimal.NewFromInt(1).Div(quote)
	}
	return out, nil
}
