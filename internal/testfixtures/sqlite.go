package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/ai-secretary/internal/persistence/sqlite"
	"github.com/example/ai-secretary/internal/persistence/sqlite/migration"
)

// SQLiteHarness owns a migrated secretary database in a test temp dir. Storage
// satisfies every persistence repository interface.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	closeOnce sync.Once
}

// Close shuts the database. It runs automatically at test cleanup.
func (h *SQLiteHarness) Close() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		_ = h.Storage.Close()
	})
}

// NewSQLiteHarness opens and migrates a fresh database for tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "secretary.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("open secretary database: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("migrate secretary database: %v", err)
	}

	harness := &SQLiteHarness{Storage: storage}
	tb.Cleanup(harness.Close)
	return harness
}
