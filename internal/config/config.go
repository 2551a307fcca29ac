// Package config loads bankmbt settings from BANKMBT_* environment variables.
// Command-line flags use these values as their defaults.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"

	"qazna.org/bankmbt/internal/ledger"
)

type Config struct {
	TraceDir         string        `env:"BANKMBT_TRACE_DIR"         envDefault:"traces"`
	TracePattern     string        `env:"BANKMBT_TRACE_PATTERN"     envDefault:"*.itf.json"`
	Workers          int           `env:"BANKMBT_WORKERS"`
	MaxBalance       string        `env:"BANKMBT_MAX_BALANCE"`
	ErrorMessages    string        `env:"BANKMBT_ERROR_MESSAGES"`
	MetricsFile      string        `env:"BANKMBT_METRICS_FILE"`
	FailFast         bool          `env:"BANKMBT_FAIL_FAST"`
	ProgressInterval time.Duration `env:"BANKMBT_PROGRESS_INTERVAL" envDefault:"2s"`
	SimSeed          int64         `env:"BANKMBT_SIM_SEED"`
	SimSteps         int           `env:"BANKMBT_SIM_STEPS"         envDefault:"20"`
}

// Load parses the environment. Workers defaults to GOMAXPROCS.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden after Load.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.SimSteps < 0 {
		return fmt.Errorf("simulation steps must not be negative, got %d", c.SimSteps)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval must not be negative, got %s", c.ProgressInterval)
	}
	if _, err := c.LedgerOptions(); err != nil {
		return err
	}
	return nil
}

// LedgerOptions turns the ledger-related settings into ledger options.
func (c Config) LedgerOptions() ([]ledger.Option, error) {
	var opts []ledger.Option
	if c.MaxBalance != "" {
		max, err := ledger.ParseAmount(c.MaxBalance)
		if err != nil {
			return nil, fmt.Errorf("max balance: %w", err)
		}
		if max.Sign() < 0 {
			return nil, fmt.Errorf("max balance must not be negative, got %s", max)
		}
		opts = append(opts, ledger.WithMaxBalance(max))
	}
	return opts, nil
}
