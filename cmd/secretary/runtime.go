package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/ai-secretary/internal/config"
	"github.com/example/ai-secretary/internal/logging"
	"github.com/example/ai-secretary/internal/persistence/sqlite"
	"github.com/example/ai-secretary/internal/persistence/sqlite/migration"
)

// runtime is bound into every command's Run method.
type runtime struct {
	ctx        context.Context
	stdout     io.Writer
	sqlitePath string
}

// environment is the configuration, logger and storage shared by the commands.
type environment struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage

	closers []io.Closer
}

func (e *environment) release() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			e.logger.Error("failed to release resource", "error", err)
		}
	}
}

// open loads configuration and opens storage. When migrate is set pending
// migrations are applied before returning.
func (rt *runtime) open(migrate bool) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rt.sqlitePath != "" {
		cfg.SQLitePath = rt.sqlitePath
	}

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	env := &environment{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
	if err != nil {
		env.release()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	env.storage = storage
	env.closers = append(env.closers, storage)

	if migrate {
		if err := storage.Migrate(rt.ctx); err != nil {
			env.release()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return env, nil
}
