// Package migration provides a database migration system for SQLite databases.
//
// Migrations are plain SQL files named {version}_{description}.sql (for
// example "001_initial_schema.sql") read from an fs.FS, usually an embedded
// directory. Each file runs in its own transaction together with the insert
// into the schema_migrations table that records it, so a failed file leaves
// no trace. Versions must be contiguous, and a file whose checksum differs
// from the one recorded when it was applied stops the run.
//
// Example usage:
//
//	manager := migration.NewManager(migrationsFS, migration.NewScanner(), migration.NewSQLiteExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
