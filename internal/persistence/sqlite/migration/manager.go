package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager applies pending migrations from a filesystem in version order.
type Manager struct {
	fsys     fs.FS
	scanner  Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(fsys fs.FS, scanner Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		fsys:     fsys,
		scanner:  scanner,
		executor: executor,
		logger:   logger.With("component", "migration"),
	}
}

// Run executes all pending migrations and returns how many were applied.
func (m *Manager) Run(ctx context.Context) (applied int, err error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date", "version", status.CurrentVersion)
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, migration := range status.Pending {
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"file", migration.FilePath,
		)

		elapsed, execErr := m.executor.ExecuteMigration(ctx, migration)
		if execErr != nil {
			logger.ErrorContext(ctx, "migration failed", "error", execErr)
			return applied, NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, execErr))
		}
		applied++
		logger.InfoContext(ctx, "migration applied", "step", i+1, "of", len(status.Pending), "duration", elapsed)
	}

	return applied, nil
}

// Status compares the migration files against schema_migrations.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, fmt.Errorf("failed to initialize version table: %w", err)
	}

	available, err := m.scanner.Scan(m.fsys)
	if err != nil {
		return Status{}, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		appliedByVersion[versionNumber(a.Version)] = a
		status.CurrentVersion = a.Version
	}

	for _, migration := range available {
		done, ok := appliedByVersion[versionNumber(migration.Version)]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if done.Checksum != "" && done.Checksum != migration.Checksum {
			return Status{}, NewMigrationError(migration.Version, migration.FilePath, "verify checksum",
				fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, done.Checksum, migration.Checksum))
		}
	}

	return status, nil
}

// validateSequence ensures available versions are contiguous and every
// applied version still has a file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	known := make(map[int]bool, len(available))
	for i, migration := range available {
		v := versionNumber(migration.Version)
		known[v] = true
		if i > 0 && v != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version %03d in sequence",
				ErrVersionConflict, versionNumber(available[i-1].Version)+1)
		}
	}

	for _, a := range applied {
		if !known[versionNumber(a.Version)] {
			return fmt.Errorf("%w: applied migration %s not found in available migrations",
				ErrVersionConflict, a.Version)
		}
	}
	return nil
}
