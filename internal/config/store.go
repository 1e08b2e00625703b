package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverBadger   = "badger"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"badger"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	AutoMigrate bool   `env:"STORE_AUTO_MIGRATE" envDefault:"true"`

	BadgerDir      string `env:"BADGER_DIR" envDefault:"data/ledger"`
	BadgerInMemory bool   `env:"BADGER_IN_MEMORY" envDefault:"false"`
	// BadgerVerbose forwards badger's info and debug chatter.
	BadgerVerbose bool `env:"BADGER_VERBOSE" envDefault:"false"`
}

func LoadStore() (StoreConfig, error) {
	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch cfg.Driver {
	case StoreDriverBadger:
		if !cfg.BadgerInMemory && strings.TrimSpace(cfg.BadgerDir) == "" {
			return cfg, fmt.Errorf("BADGER_DIR is required unless BADGER_IN_MEMORY is set")
		}
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return cfg, fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
	return cfg, nil
}
