// Package config defines engine configuration and loading.
//
// Conventions:
// - Provide New() defaults and Load(ctx) layering file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/emahq/mers/internal/domain/aging"
	"github.com/emahq/mers/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file holding the record store.
	DBPath string `koanf:"db_path"`

	// TotalSeats is the default seat pool for quota runs.
	TotalSeats int `koanf:"total_seats"`

	// ReckoningDate pins the as-of date for aging, formatted
	// YYYY-MM-DD. Empty means "today".
	ReckoningDate string `koanf:"reckoning_date"`

	// Assess enables cross-checking computed values against official
	// reference data during ranking passes.
	Assess bool `koanf:"assess"`

	// MaxPageSize caps the HTTP rankings page size.
	MaxPageSize int `koanf:"max_page_size"`

	// Workers is the number of goroutines ranking players in parallel.
	// Zero means one per CPU.
	Workers int `koanf:"workers"`

	// AgingOverrides pins effective end dates for specific
	// tournaments, keyed "ruleset/id" with YYYY-MM-DD values. When
	// empty, the engine's built-in lockdown table applies.
	AgingOverrides map[string]string `koanf:"aging_overrides"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9090",
		DBPath:      "mers.db",
		TotalSeats:  140,
		MaxPageSize: 500,
	}
}

// Reckoning resolves the configured reckoning date, defaulting to the
// current day.
func (c *Config) Reckoning() (time.Time, error) {
	if c.ReckoningDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", c.ReckoningDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reckoning_date %q: %v", ErrInvalidConfig, c.ReckoningDate, err)
	}
	return t, nil
}

// Overrides parses the configured aging override table. An empty table
// yields the built-in default.
func (c *Config) Overrides() (aging.Overrides, error) {
	if len(c.AgingOverrides) == 0 {
		return aging.DefaultOverrides(), nil
	}
	out := make(aging.Overrides, len(c.AgingOverrides))
	for key, date := range c.AgingOverrides {
		parts := strings.SplitN(key, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: aging override key %q, want ruleset/id", ErrInvalidConfig, key)
		}
		rs, err := model.ParseRuleset(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: aging override key %q: %v", ErrInvalidConfig, key, err)
		}
		var id int
		if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
			return nil, fmt.Errorf("%w: aging override key %q: %v", ErrInvalidConfig, key, err)
		}
		pinned, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: aging override %q date %q: %v", ErrInvalidConfig, key, date, err)
		}
		out[aging.OverrideKey{Ruleset: rs, ID: id}] = pinned
	}
	return out, nil
}
