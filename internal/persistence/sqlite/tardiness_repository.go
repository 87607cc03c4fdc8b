package sqlite

import (
	"context"
	"strings"

	"github.com/example/checkclass/internal/persistence"
)

const entryColumns = `id, student_id, date, time_of_day, reason_code, notified, created_at`

// TardinessRepository implements persistence.TardinessRepository using SQLite.
// Insertion order is the rowid order.
type TardinessRepository struct {
	pool *ConnectionPool
}

// NewTardinessRepository creates a new SQLite tardiness repository
func NewTardinessRepository(pool *ConnectionPool) *TardinessRepository {
	return &TardinessRepository{pool: pool}
}

// CreateEntry appends an entry to a student's ledger
func (r *TardinessRepository) CreateEntry(ctx context.Context, entry persistence.TardinessEntry) error {
	if entry.ID == "" || entry.StudentID == "" || entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO tardiness_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.StudentID,
		formatDate(entry.Date),
		entry.TimeOfDay,
		entry.ReasonCode,
		entry.Notified,
		formatTimestamp(entry.CreatedAt),
	)
	return mapError(err)
}

// GetEntry retrieves an entry by ID
func (r *TardinessRepository) GetEntry(ctx context.Context, id string) (persistence.TardinessEntry, error) {
	if id == "" {
		return persistence.TardinessEntry{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+entryColumns+` FROM tardiness_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// UpdateEntry rewrites the date, time, reason code and notified flag of an entry
func (r *TardinessRepository) UpdateEntry(ctx context.Context, entry persistence.TardinessEntry) error {
	if entry.ID == "" {
		return persistence.ErrNotFound
	}
	if entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE tardiness_entries
		SET date = ?, time_of_day = ?, reason_code = ?, notified = ?
		WHERE id = ?
	`,
		formatDate(entry.Date),
		entry.TimeOfDay,
		entry.ReasonCode,
		entry.Notified,
		entry.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// DeleteEntry removes an entry by ID
func (r *TardinessRepository) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM tardiness_entries WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ListEntries returns entries matching filter in insertion order
func (r *TardinessRepository) ListEntries(ctx context.Context, filter persistence.TardinessFilter) ([]persistence.TardinessEntry, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, formatDate(*filter.Date))
	}

	query := `SELECT ` + entryColumns + ` FROM tardiness_entries`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY rowid ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.TardinessEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

func scanEntry(row rowScanner) (persistence.TardinessEntry, error) {
	var (
		entry     persistence.TardinessEntry
		date      string
		createdAt string
	)
	err := row.Scan(&entry.ID, &entry.StudentID, &date, &entry.TimeOfDay, &entry.ReasonCode, &entry.Notified, &createdAt)
	if err != nil {
		return persistence.TardinessEntry{}, mapError(err)
	}

	if entry.Date, err = parseDate(date); err != nil {
		return persistence.TardinessEntry{}, err
	}
	if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.TardinessEntry{}, err
	}
	return entry, nil
}
