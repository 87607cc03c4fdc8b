package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/checkclass/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a new room into the database
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Name == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO rooms (id, name, created_at) VALUES (?, ?, ?)`,
		room.ID, room.Name, formatTimestamp(room.CreatedAt),
	)
	return mapError(err)
}

// GetRoom retrieves a room by ID from the database
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `SELECT id, name, created_at FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by name then ID
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT id, name, created_at FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Rooms that still have bookings are protected by
// the foreign key and yield persistence.ErrForeignKeyViolation.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var bookings int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE room_id = ?`, id).Scan(&bookings); err != nil {
			return mapError(err)
		}
		if bookings > 0 {
			return persistence.ErrForeignKeyViolation
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(result)
	})
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		createdAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &createdAt); err != nil {
		return persistence.Room{}, mapError(err)
	}

	var err error
	if room.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
