package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

type migrationManager struct {
	scanner  FileScanner
	executor Executor
	dir      string
	logger   *slog.Logger
}

// NewMigrationManager wires a scanner and executor for the migrations in dir.
func NewMigrationManager(scanner FileScanner, executor Executor, dir string, logger *slog.Logger) MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationManager{
		scanner:  scanner,
		executor: executor,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// RunMigrations executes all pending migrations in sequential order. The first
// failure stops the run; earlier migrations stay applied.
func (m *migrationManager) RunMigrations(ctx context.Context) error {
	started := time.Now()

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to resolve pending migrations", "error", err)
		return err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date")
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "pending", len(pending))

	for i, migration := range pending {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(pending)),
		)

		migrationStarted := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}

		elapsed := time.Since(migrationStarted)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "record migration", err)
		}

		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	m.logger.InfoContext(ctx, "migrations complete", "applied", len(pending), "duration", time.Since(started))
	return nil
}

// GetPendingMigrations returns migrations not yet recorded, in version order.
func (m *migrationManager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		version, _ := strconv.Atoi(a.Version)
		appliedByVersion[version] = a
	}

	var pending []Migration
	for _, migration := range available {
		version, _ := strconv.Atoi(migration.Version)
		record, ok := appliedByVersion[version]
		if !ok {
			pending = append(pending, migration)
			continue
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return nil, NewMigrationError(migration.Version, migration.FilePath, "verify checksum",
				fmt.Errorf("%w: file changed after it was applied", ErrChecksumMismatch))
		}
	}
	return pending, nil
}

// GetMigrationStatus reports the current version and pending migrations.
func (m *migrationManager) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	status := &MigrationStatus{
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}
	maxVersion := -1
	for _, a := range applied {
		if version, err := strconv.Atoi(a.Version); err == nil && version > maxVersion {
			maxVersion = version
			status.CurrentVersion = a.Version
		}
	}
	return status, nil
}

// validateSequence rejects gaps in the available versions and applied
// versions that no longer have a file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	availableSet := make(map[int]bool, len(available))
	for i, migration := range available {
		version, err := strconv.Atoi(migration.Version)
		if err != nil {
			return NewMigrationError(migration.Version, migration.FilePath, "validate sequence",
				fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		if i > 0 {
			previous, _ := strconv.Atoi(available[i-1].Version)
			if version != previous+1 {
				return fmt.Errorf("%w: missing migration version %04d in sequence", ErrVersionConflict, previous+1)
			}
		}
		availableSet[version] = true
	}

	for _, a := range applied {
		version, err := strconv.Atoi(a.Version)
		if err != nil {
			return fmt.Errorf("%w: applied version '%s' is not numeric", ErrInvalidVersion, a.Version)
		}
		if !availableSet[version] {
			return fmt.Errorf("%w: applied migration %04d not found in available migrations", ErrVersionConflict, version)
		}
	}
	return nil
}
