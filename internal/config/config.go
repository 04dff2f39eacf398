package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tripsplit/internal/currency"
	"github.com/cleared-dev/tripsplit/internal/rates"
	"github.com/cleared-dev/tripsplit/internal/settlement"
)

// FileName is the config file at the root of a trip directory.
const FileName = "trip.yaml"

// Config represents the top-level trip.yaml configuration.
type Config struct {
	Trip         TripConfig       `yaml:"trip"`
	BaseCurrency string           `yaml:"base_currency"`
	Settlement   SettlementConfig `yaml:"settlement"`
	Split        SplitConfig      `yaml:"split"`
	Rates        RatesConfig      `yaml:"rates"`
}

// TripConfig identifies the trip.
type TripConfig struct {
	Name string `yaml:"name"`
}

// SettlementConfig selects the default settlement policy.
type SettlementConfig struct {
	Policy string `yaml:"policy"` // simplified | detailed
}

// SplitConfig tunes how expenses are shared.
type SplitConfig struct {
	ExcludePayerShare bool `yaml:"exclude_payer_share"`
}

// RatesConfig controls where conversion rates come from.
type RatesConfig struct {
	Source   string            `yaml:"source"` // http | static
	Endpoint string            `yaml:"endpoint,omitempty"`
	Timeout  time.Duration     `yaml:"timeout"`
	Static   map[string]string `yaml:"static,omitempty"` // code -> base units per unit
}

// Load reads a trip.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new trip.
func Default(name, baseCurrency string) *Config {
	return &Config{
		Trip:         TripConfig{Name: name},
		BaseCurrency: currency.Normalize(baseCurrency),
		Settlement:   SettlementConfig{Policy: string(settlement.PolicySimplified)},
		Rates: RatesConfig{
			Source:   rates.SourceHTTP,
			Endpoint: rates.DefaultEndpoint,
			Timeout:  10 * time.Second,
		},
	}
}

// Validate reports every problem with cfg.
func (c *Config) Validate() error {
	var errs []error
	if c.BaseCurrency == "" {
		errs = append(errs, errors.New("base_currency is required"))
	} else if !currency.Known(c.BaseCurrency) {
		errs = append(errs, fmt.Errorf("base_currency %q is not an ISO 4217 code", c.BaseCurrency))
	}
	if _, err := settlement.ParsePolicy(c.Settlement.Policy); err != nil {
		errs = append(errs, fmt.Errorf("settlement.policy: %w", err))
	}
	switch strings.ToLower(c.Rates.Source) {
	case rates.SourceHTTP, rates.SourceStatic:
	default:
		errs = append(errs, fmt.Errorf("rates.source: unknown rate source %q", c.Rates.Source))
	}
	if c.Rates.Timeout < 0 {
		errs = append(errs, errors.New("rates.timeout must not be negative"))
	}
	if _, err := c.StaticRates(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StaticRates parses rates.static.
func (c *Config) StaticRates() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(c.Rates.Static))
	for code, raw := range c.Rates.Static {
		f, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("rates.static.%s: %w", code, err)
		}
		if !f.IsPositive() {
			return nil, fmt.Errorf("rates.static.%s: must be positive, got %s", code, raw)
		}
		out[currency.Normalize(code)] = f
	}
	return out, nil
}
