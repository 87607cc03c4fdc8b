package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/checkclass/internal/persistence"
)

// RoomRepository captures the room lookups needed by the services.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// StudentRepository captures the student lookups needed by the services.
type StudentRepository interface {
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
}

// BookingRepository captures the booking persistence operations. CreateBooking
// must fail with persistence.ErrDuplicate when the slot is already taken.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	FindBookingBySlot(ctx context.Context, roomID string, date time.Time, slot string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// TardinessRepository captures the ledger persistence operations. ListEntries
// returns entries in insertion order.
type TardinessRepository interface {
	CreateEntry(ctx context.Context, entry TardinessEntry) (TardinessEntry, error)
	GetEntry(ctx context.Context, id string) (TardinessEntry, error)
	UpdateEntry(ctx context.Context, entry TardinessEntry) (TardinessEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, filter TardinessFilter) ([]TardinessEntry, error)
}

// mapRepoError translates store failures into application sentinels. Errors
// the services already understand pass through unchanged.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}

	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrEmptyLedger),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrStorageUnavailable),
		errors.As(err, &vErr):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr = &ValidationError{}
		vErr.add("record", "rejected by the store")
		return vErr
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
