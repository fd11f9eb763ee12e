package migration

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const memoryDSN = ":memory:"

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// Path is the database file, or ":memory:".
	Path              string
	BusyTimeout       time.Duration
	EnableForeignKeys bool
	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF.
	JournalMode string
	// Synchronous is one of OFF, NORMAL, FULL, EXTRA.
	Synchronous string
	// CacheSize in KiB when negative, in pages when positive.
	CacheSize       int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionManager opens configured SQLite connections.
type ConnectionManager interface {
	GetConnection() (*sql.DB, error)
	ValidateConfig() error
}

type sqliteConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager.
func NewConnectionManager(config SQLiteConfig) ConnectionManager {
	return &sqliteConnectionManager{config: config}
}

// GetConnection validates the configuration, creates the parent directory and
// opens a pool whose every connection carries the configured pragmas.
func (cm *sqliteConnectionManager) GetConnection() (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if cm.config.Path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(cm.config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cm.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
	}
	if cm.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cm.config.MaxIdleConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// dataSourceName encodes pragmas as _pragma query parameters; the driver runs
// them on every new connection, unlike a one-off PRAGMA exec on the pool.
func (cm *sqliteConnectionManager) dataSourceName() string {
	params := url.Values{}
	add := func(pragma string) {
		params.Add("_pragma", pragma)
	}

	add(fmt.Sprintf("busy_timeout(%d)", cm.config.BusyTimeout.Milliseconds()))
	if cm.config.EnableForeignKeys {
		add("foreign_keys(1)")
	}
	if cm.config.JournalMode != "" {
		add(fmt.Sprintf("journal_mode(%s)", cm.config.JournalMode))
	}
	if cm.config.Synchronous != "" {
		add(fmt.Sprintf("synchronous(%s)", cm.config.Synchronous))
	}
	if cm.config.CacheSize != 0 {
		add(fmt.Sprintf("cache_size(%d)", cm.config.CacheSize))
	}
	// Writers take the lock at BEGIN so concurrent write transactions wait on
	// busy_timeout instead of failing on lock upgrade.
	params.Set("_txlock", "immediate")

	return cm.config.Path + "?" + params.Encode()
}

// ValidateConfig validates the SQLite configuration.
func (cm *sqliteConnectionManager) ValidateConfig() error {
	if strings.TrimSpace(cm.config.Path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if cm.config.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true,
	}
	if cm.config.JournalMode != "" && !validJournalModes[cm.config.JournalMode] {
		return fmt.Errorf("invalid journal mode: %s", cm.config.JournalMode)
	}

	validSyncModes := map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if cm.config.Synchronous != "" && !validSyncModes[cm.config.Synchronous] {
		return fmt.Errorf("invalid synchronous mode: %s", cm.config.Synchronous)
	}

	if cm.config.MaxOpenConns < 0 || cm.config.MaxIdleConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	if cm.config.Path == memoryDSN && cm.config.MaxOpenConns != 1 {
		return fmt.Errorf("in-memory databases require MaxOpenConns = 1")
	}
	if cm.config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}

	return nil
}

// DefaultSQLiteConfig returns the production configuration for a database file.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		Path:              databasePath,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		CacheSize:         -2000,
		MaxOpenConns:      8,
		MaxIdleConns:      4,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// InMemoryTestSQLiteConfig returns a single-connection in-memory configuration.
func InMemoryTestSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:              memoryDSN,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

// TempFileTestSQLiteConfig returns a fast configuration for a throwaway file.
func TempFileTestSQLiteConfig(tempFilePath string) SQLiteConfig {
	return SQLiteConfig{
		Path:              tempFilePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "OFF",
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
	}
}
