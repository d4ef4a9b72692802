package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"picky/config"
)

// New creates a Store from configuration. Backend selection is a one-time
// startup decision, never a per-request branch.
//
// Supported backends:
//
//	"json"   - one JSON file per collection in cfg.DataDir (default)
//	"redis"  - document store at cfg.RedisAddr
//	"sqlite" - SQLite database at cfg.DataDir/picky.db
//	"memory" - in-memory (ephemeral, for testing)
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return NewJSONFileStore(cfg.DataDir, logger)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendSQLite:
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "picky.db"))
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, redis, sqlite, memory)", cfg.Backend)
	}
}
