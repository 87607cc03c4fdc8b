package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"
)

type mockScanner struct {
	migrations []Migration
	err        error
}

func (m *mockScanner) Scan(fs.FS) ([]Migration, error) {
	return m.migrations, m.err
}

type mockExecutor struct {
	applied   []AppliedMigration
	executed  []string
	failOn    string
	initError error
}

func (m *mockExecutor) InitializeVersionTable(context.Context) error {
	return m.initError
}

func (m *mockExecutor) ExecuteMigration(_ context.Context, migration Migration) (time.Duration, error) {
	if migration.Version == m.failOn {
		return 0, errors.New("boom")
	}
	m.executed = append(m.executed, migration.Version)
	m.applied = append(m.applied, AppliedMigration{Version: migration.Version, Checksum: migration.Checksum})
	return time.Millisecond, nil
}

func (m *mockExecutor) AppliedMigrations(context.Context) ([]AppliedMigration, error) {
	return m.applied, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_Run(t *testing.T) {
	available := []Migration{
		{Version: "001", Checksum: "a"},
		{Version: "002", Checksum: "b"},
		{Version: "003", Checksum: "c"},
	}

	t.Run("applies only pending migrations in order", func(t *testing.T) {
		executor := &mockExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "a"}}}
		manager := NewManager(nil, &mockScanner{migrations: available}, executor, quietLogger())

		applied, err := manager.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if applied != 2 {
			t.Fatalf("expected 2 applied, got %d", applied)
		}
		if len(executor.executed) != 2 || executor.executed[0] != "002" || executor.executed[1] != "003" {
			t.Fatalf("unexpected execution order: %v", executor.executed)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		executor := &mockExecutor{failOn: "002"}
		manager := NewManager(nil, &mockScanner{migrations: available}, executor, quietLogger())

		applied, err := manager.Run(context.Background())
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if applied != 1 {
			t.Fatalf("expected 1 applied before failure, got %d", applied)
		}
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		gappy := []Migration{{Version: "001"}, {Version: "003"}}
		manager := NewManager(nil, &mockScanner{migrations: gappy}, &mockExecutor{}, quietLogger())

		if _, err := manager.Run(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("rejects edited migrations", func(t *testing.T) {
		executor := &mockExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "other"}}}
		manager := NewManager(nil, &mockScanner{migrations: available}, executor, quietLogger())

		if _, err := manager.Run(context.Background()); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("propagates initialization errors", func(t *testing.T) {
		executor := &mockExecutor{initError: errors.New("locked")}
		manager := NewManager(nil, &mockScanner{migrations: available}, executor, quietLogger())

		if _, err := manager.Run(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestManager_RealDatabase(t *testing.T) {
	db, err := Open(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"001_rooms.sql":  {Data: []byte("CREATE TABLE rooms (id TEXT PRIMARY KEY, name TEXT NOT NULL);")},
		"002_seed.sql":   {Data: []byte("INSERT INTO rooms (id, name) VALUES ('r1', 'Aula 1');")},
		"003_broken.sql": {Data: []byte("INSERT INTO missing_table (id) VALUES ('x');")},
	}

	manager := NewManager(fsys, NewScanner(), NewSQLiteExecutor(db), quietLogger())
	applied, err := manager.Run(context.Background())
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected failure on third migration, got %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", count)
	}

	delete(fsys, "003_broken.sql")
	applied, err = manager.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected idempotent rerun, applied %d", applied)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM rooms WHERE id = 'r1'").Scan(&name); err != nil && !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("query rooms: %v", err)
	}
	if name != "Aula 1" {
		t.Fatalf("expected seeded room, got %q", name)
	}
}

func TestSQLiteConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SQLiteConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*SQLiteConfig) {}},
		{name: "empty path", mutate: func(c *SQLiteConfig) { c.Path = "" }, wantErr: true},
		{name: "bad journal", mutate: func(c *SQLiteConfig) { c.JournalMode = "FAST" }, wantErr: true},
		{name: "bad sync", mutate: func(c *SQLiteConfig) { c.Synchronous = "SOMETIMES" }, wantErr: true},
		{name: "negative conns", mutate: func(c *SQLiteConfig) { c.MaxOpenConns = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSQLiteConfig("test.db")
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLiteConfig_DSN(t *testing.T) {
	cfg := InMemoryTestSQLiteConfig()
	dsn := cfg.DSN()
	want := ":memory:?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29&_pragma=journal_mode%28MEMORY%29&_pragma=synchronous%28OFF%29"
	if dsn != want {
		t.Fatalf("unexpected DSN:\n got %s\nwant %s", dsn, want)
	}
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	db, err := Open(InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("expected foreign keys enabled, got %d", enabled)
	}
}
