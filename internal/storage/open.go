// Package storage picks the ledger backend named by the store config.
package storage

import (
	"context"
	"fmt"

	"poker-ledger/internal/config"
	"poker-ledger/internal/kvstore"
	"poker-ledger/internal/ledger"
	"poker-ledger/internal/store"

	"github.com/rs/zerolog/log"
)

// Backend is a ledger store the process owns and must close.
type Backend interface {
	ledger.Store
	Ping(ctx context.Context) error
	Close() error
}

type postgresBackend struct {
	*store.Store
}

func (b postgresBackend) Close() error {
	b.Store.Close()
	return nil
}

func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		st, err := store.New(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, err
			}
		}
		log.Info().Str("driver", cfg.Driver).Msg("ledger store ready")
		return postgresBackend{st}, nil
	case config.StoreDriverBadger, "":
		st, err := kvstore.Open(kvstore.Options{Dir: cfg.BadgerDir, InMemory: cfg.BadgerInMemory, Verbose: cfg.BadgerVerbose})
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("driver", config.StoreDriverBadger).
			Str("dir", cfg.BadgerDir).
			Bool("in_memory", cfg.BadgerInMemory).
			Msg("ledger store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
