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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CARDVOTER_CONFIG is set
//  3. env (prefix CARDVOTER_, with "__" as the nesting separator, e.g.
//     CARDVOTER_ELO__INITIAL_RATING -> elo.initial_rating)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CARDVOTER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider("CARDVOTER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "cardvoter_")
		return strings.ReplaceAll(s, "__", ".")
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
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Storage != StorageMemory && c.Storage != StorageSQLite:
		return fmt.Errorf("%w: storage must be %q or %q", ErrInvalidConfig, StorageMemory, StorageSQLite)
	case c.Storage == StorageSQLite && c.DBPath == "":
		return fmt.Errorf("%w: db_path required for sqlite storage", ErrInvalidConfig)
	case c.Elo.MaxRating <= c.Elo.MinRating:
		return fmt.Errorf("%w: elo.max_rating must exceed elo.min_rating", ErrInvalidConfig)
	case c.Elo.InitialRating < c.Elo.MinRating || c.Elo.InitialRating > c.Elo.MaxRating:
		return fmt.Errorf("%w: elo.initial_rating outside rating bounds", ErrInvalidConfig)
	case c.Pairing.RandomBand < 0 || c.Pairing.ExtremeBand < 0 ||
		c.Pairing.RandomBand+c.Pairing.ExtremeBand > 1:
		return fmt.Errorf("%w: pairing bands must be non-negative and sum to at most 1", ErrInvalidConfig)
	case c.Session.TTLMinutes <= 0:
		return fmt.Errorf("%w: session.ttl_minutes must be positive", ErrInvalidConfig)
	}
	return nil
}
