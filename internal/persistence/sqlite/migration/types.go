package migration

import (
	"context"
	"time"
)

// Migration is one versioned SQL file.
type Migration struct {
	Version     string // numeric prefix of the file name, e.g. "0001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // sha256 of SQL
}

// MigrationManager orchestrates the migration process.
type MigrationManager interface {
	// RunMigrations executes all pending migrations in version order.
	RunMigrations(ctx context.Context) error
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner discovers migration files.
type FileScanner interface {
	// ScanMigrations returns the migrations found in dir sorted by version.
	ScanMigrations(dir string) ([]Migration, error)
	ValidateFileName(filename string) error
	ParseMigrationFile(path string) (*Migration, error)
}

// Executor runs migrations against the database.
type Executor interface {
	// ExecuteMigration runs a single migration within a transaction.
	ExecuteMigration(ctx context.Context, migration Migration) error
	// InitializeVersionTable creates schema_migrations if it does not exist.
	InitializeVersionTable(ctx context.Context) error
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus summarises the applied and pending migrations.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
