package sqlite

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/checkclass/internal/persistence"
	"github.com/example/checkclass/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store is a persistence.Store backed by one SQLite database.
type Store struct {
	*RoomRepository
	*StudentRepository
	*BookingRepository
	*TardinessRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by config. Call Migrate before use
// on a fresh database.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		RoomRepository:      NewRoomRepository(pool),
		StudentRepository:   NewStudentRepository(pool),
		BookingRepository:   NewBookingRepository(pool),
		TardinessRepository: NewTardinessRepository(pool),
		pool:                pool,
		logger:              logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	manager := migration.NewManager(Migrations(), migration.NewScanner(), migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	applied, err := manager.Run(ctx)
	if err != nil {
		return applied, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return applied, nil
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(Migrations(), migration.NewScanner(), migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	return manager.Status(ctx)
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
