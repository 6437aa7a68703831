package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file if MERS_CONFIG is set
//  3. env (prefix MERS_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MERS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Env keys like MERS_DB_PATH map to db_path; underscores are kept
	// to match the koanf tags on the struct.
	envProvider := env.Provider("MERS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "mers_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.TotalSeats < 0 {
		return fmt.Errorf("%w: total_seats must not be negative", ErrInvalidConfig)
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("%w: max_page_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.Reckoning(); err != nil {
		return err
	}
	if _, err := c.Overrides(); err != nil {
		return err
	}
	return nil
}
