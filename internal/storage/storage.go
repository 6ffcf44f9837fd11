package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/fin-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/fin-ledger/internal/interfaces"
	"github.com/sheikh-saqib/fin-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/fin-ledger/internal/storage/postgres"
)

// Open returns the LedgerStore selected by cfg.Driver. The postgres store is
// migrated before it is returned when cfg.MigrateOnRun is set.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (interfaces.LedgerStore, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewMemoryLedgerStore(), nil

	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxRetries, logger)
		if err != nil {
			return nil, err
		}
		store := postgres.NewPostgresLedgerStore(db, logger.Named("postgres"))
		if cfg.MigrateOnRun {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
			logger.Info("database schema is up to date")
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
