package storage

import (
	"context"
	"fmt"

	"github.com/dailytracker/backend/internal/config"
	"github.com/dailytracker/backend/internal/logging"
)

// Open builds the entry store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger logging.Logger) (EntryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, logger)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, logger)
	case config.BackendMemory:
		logger.Warnf("[storage] memory backend selected, entries are lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
