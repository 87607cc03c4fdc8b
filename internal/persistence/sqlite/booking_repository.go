package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/checkclass/internal/persistence"
)

const bookingColumns = `id, room_id, date, time_slot, holder_name, created_at`

// BookingRepository implements persistence.BookingRepository using SQLite.
// The UNIQUE (room_id, date, time_slot) constraint arbitrates concurrent
// bookings of the same slot.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateBooking inserts a booking, failing with persistence.ErrDuplicate when
// the slot is already taken
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || booking.RoomID == "" || booking.TimeSlot == "" || booking.Date.IsZero() {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.RoomID,
		formatDate(booking.Date),
		booking.TimeSlot,
		booking.HolderName,
		formatTimestamp(booking.CreatedAt),
	)
	return mapError(err)
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// FindBookingBySlot returns the booking occupying a room slot on a date
func (r *BookingRepository) FindBookingBySlot(ctx context.Context, roomID string, date time.Time, slot string) (persistence.Booking, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE room_id = ? AND date = ? AND time_slot = ?`,
		roomID, formatDate(date), slot,
	)
	return scanBooking(row)
}

// ListBookings returns bookings matching filter ordered by date, slot, then room
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.From != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, formatDate(*filter.To))
	}
	if filter.HolderName != "" {
		conditions = append(conditions, "holder_name = ?")
		args = append(args, filter.HolderName)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date ASC, time_slot ASC, room_id ASC, id ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

// DeleteBooking removes a booking by ID
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking   persistence.Booking
		date      string
		createdAt string
	)
	err := row.Scan(&booking.ID, &booking.RoomID, &date, &booking.TimeSlot, &booking.HolderName, &createdAt)
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}

	if booking.Date, err = parseDate(date); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
