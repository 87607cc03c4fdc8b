package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMigrationFailed indicates that a migration execution failed
	ErrMigrationFailed = errors.New("migration execution failed")

	// ErrInvalidMigrationFile indicates that a migration file is malformed or invalid
	ErrInvalidMigrationFile = errors.New("invalid migration file format")

	// ErrVersionConflict indicates a gap or reordering in the version sequence
	ErrVersionConflict = errors.New("migration version conflict")

	ErrInvalidVersion   = errors.New("invalid migration version")
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrChecksumMismatch indicates that an applied migration file was edited afterwards
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// Stage names the part of the runner where an Error arose.
type Stage string

const (
	StageFile     Stage = "file"
	StageDatabase Stage = "database"
	StageScript   Stage = "migration"
)

// Error carries the migration version, file and operation that failed.
// Version and Path are empty when the failure is not tied to one script.
type Error struct {
	Stage     Stage
	Version   string
	Path      string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	if e.Version != "" {
		fmt.Fprintf(&b, " %s", e.Version)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	fmt.Fprintf(&b, ": %s: %v", e.Operation, e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewMigrationError reports a problem with one migration script.
func NewMigrationError(version, filePath, operation string, err error) *Error {
	return &Error{Stage: StageScript, Version: version, Path: filePath, Operation: operation, Err: err}
}

// NewFileSystemError reports a failure reading or creating path.
func NewFileSystemError(path, operation string, err error) *Error {
	return &Error{Stage: StageFile, Path: path, Operation: operation, Err: err}
}

// NewDatabaseError reports a failure talking to the database.
func NewDatabaseError(version, operation string, err error) *Error {
	return &Error{Stage: StageDatabase, Version: version, Operation: operation, Err: err}
}
