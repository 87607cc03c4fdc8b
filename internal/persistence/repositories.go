package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes room reference data.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// StudentRepository exposes student reference data.
type StudentRepository interface {
	CreateStudent(ctx context.Context, student Student) error
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
}

// BookingFilter narrows booking queries. Zero fields are ignored; From and To
// are inclusive dates.
type BookingFilter struct {
	RoomID     string
	From       *time.Time
	To         *time.Time
	HolderName string
}

// BookingRepository stores room bookings. CreateBooking must fail with
// ErrDuplicate when the (room, date, slot) triple is already taken.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	FindBookingBySlot(ctx context.Context, roomID string, date time.Time, slot string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// TardinessFilter narrows tardiness queries. Zero fields are ignored.
type TardinessFilter struct {
	StudentID string
	Date      *time.Time
}

// TardinessRepository stores tardiness entries. ListEntries returns entries
// in insertion order.
type TardinessRepository interface {
	CreateEntry(ctx context.Context, entry TardinessEntry) error
	GetEntry(ctx context.Context, id string) (TardinessEntry, error)
	UpdateEntry(ctx context.Context, entry TardinessEntry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, filter TardinessFilter) ([]TardinessEntry, error)
}

// Store bundles every repository behind one backend connection.
type Store interface {
	RoomRepository
	StudentRepository
	BookingRepository
	TardinessRepository
	Close() error
}
