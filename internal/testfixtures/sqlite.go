package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/checkclass/internal/persistence/sqlite"
	"github.com/example/checkclass/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides a migrated SQLite store in a temporary file for
// integration-style persistence tests.
type SQLiteHarness struct {
	Store *sqlite.Store
	Path  string

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	return newSQLiteHarness(tb, migration.TempFileTestSQLiteConfig(filepath.Join(tb.TempDir(), "checkclass.db")))
}

// NewConcurrentSQLiteHarness is like NewSQLiteHarness but keeps a multi
// connection pool in WAL mode, so concurrent writers really race on the
// database.
func NewConcurrentSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	config := migration.DefaultSQLiteConfig(filepath.Join(tb.TempDir(), "checkclass.db"))
	config.MaxOpenConns = 8
	config.MaxIdleConns = 8
	return newSQLiteHarness(tb, config)
}

func newSQLiteHarness(tb testing.TB, config migration.SQLiteConfig) *SQLiteHarness {
	tb.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(config, logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if _, err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		Path:  config.Path,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
