package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/ai-secretary/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// Storage bundles the SQLite repositories over one connection pool. It
// satisfies every repository interface in the persistence package.
type Storage struct {
	*UserRepository
	*MeetingRepository
	*TaskRepository
	*ReviewRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:    NewUserRepository(pool),
		MeetingRepository: NewMeetingRepository(pool),
		TaskRepository:    NewTaskRepository(pool),
		ReviewRepository:  NewReviewRepository(pool),
		pool:              pool,
		logger:            logger,
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies every embedded migration that has not run yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.migrationManager().RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending embedded migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrationManager().GetMigrationStatus(ctx)
}

func (s *Storage) migrationManager() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationDir,
		s.logger,
	)
}
