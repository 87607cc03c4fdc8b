// Package adapter exposes a persistence.Store through the repository
// interfaces of the application layer, converting models in both directions.
package adapter

import (
	"context"
	"time"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/persistence"
	"github.com/example/checkclass/internal/sanction"
)

// Repositories implements every application repository interface on top of
// one persistence.Store. Store errors are returned unchanged so the services
// can map the persistence sentinels.
type Repositories struct {
	store persistence.Store
}

var (
	_ application.RoomCatalog         = (*Repositories)(nil)
	_ application.StudentRoster       = (*Repositories)(nil)
	_ application.BookingRepository   = (*Repositories)(nil)
	_ application.TardinessRepository = (*Repositories)(nil)
)

// New wraps store.
func New(store persistence.Store) *Repositories {
	return &Repositories{store: store}
}

// Store returns the wrapped persistence store.
func (r *Repositories) Store() persistence.Store {
	return r.store
}

func (r *Repositories) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := r.store.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return room, nil
}

func (r *Repositories) GetRoom(ctx context.Context, id string) (application.Room, error) {
	model, err := r.store.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(model), nil
}

func (r *Repositories) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

func (r *Repositories) DeleteRoom(ctx context.Context, id string) error {
	return r.store.DeleteRoom(ctx, id)
}

func (r *Repositories) CreateStudent(ctx context.Context, student application.Student) (application.Student, error) {
	if err := r.store.CreateStudent(ctx, toPersistenceStudent(student)); err != nil {
		return application.Student{}, err
	}
	return student, nil
}

func (r *Repositories) GetStudent(ctx context.Context, id string) (application.Student, error) {
	model, err := r.store.GetStudent(ctx, id)
	if err != nil {
		return application.Student{}, err
	}
	return toApplicationStudent(model), nil
}

func (r *Repositories) ListStudents(ctx context.Context) ([]application.Student, error) {
	models, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	students := make([]application.Student, 0, len(models))
	for _, model := range models {
		students = append(students, toApplicationStudent(model))
	}
	return students, nil
}

func (r *Repositories) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := r.store.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	return booking, nil
}

func (r *Repositories) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	model, err := r.store.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(model), nil
}

func (r *Repositories) FindBookingBySlot(ctx context.Context, roomID string, date time.Time, slot string) (application.Booking, error) {
	model, err := r.store.FindBookingBySlot(ctx, roomID, date, slot)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(model), nil
}

func (r *Repositories) ListBookings(ctx context.Context, filter application.BookingFilter) ([]application.Booking, error) {
	models, err := r.store.ListBookings(ctx, persistence.BookingFilter{
		RoomID:     filter.RoomID,
		From:       cloneTime(filter.From),
		To:         cloneTime(filter.To),
		HolderName: filter.HolderName,
	})
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func (r *Repositories) DeleteBooking(ctx context.Context, id string) error {
	return r.store.DeleteBooking(ctx, id)
}

func (r *Repositories) CreateEntry(ctx context.Context, entry application.TardinessEntry) (application.TardinessEntry, error) {
	if err := r.store.CreateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.TardinessEntry{}, err
	}
	return entry, nil
}

func (r *Repositories) GetEntry(ctx context.Context, id string) (application.TardinessEntry, error) {
	model, err := r.store.GetEntry(ctx, id)
	if err != nil {
		return application.TardinessEntry{}, err
	}
	return toApplicationEntry(model), nil
}

func (r *Repositories) UpdateEntry(ctx context.Context, entry application.TardinessEntry) (application.TardinessEntry, error) {
	if err := r.store.UpdateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.TardinessEntry{}, err
	}
	return entry, nil
}

func (r *Repositories) DeleteEntry(ctx context.Context, id string) error {
	return r.store.DeleteEntry(ctx, id)
}

func (r *Repositories) ListEntries(ctx context.Context, filter application.TardinessFilter) ([]application.TardinessEntry, error) {
	models, err := r.store.ListEntries(ctx, persistence.TardinessFilter{
		StudentID: filter.StudentID,
		Date:      cloneTime(filter.Date),
	})
	if err != nil {
		return nil, err
	}
	entries := make([]application.TardinessEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries, nil
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{ID: model.ID, Name: model.Name, CreatedAt: model.CreatedAt}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{ID: room.ID, Name: room.Name, CreatedAt: room.CreatedAt}
}

func toApplicationStudent(model persistence.Student) application.Student {
	return application.Student{
		ID:        model.ID,
		Surname:   model.Surname,
		Name:      model.Name,
		ClassName: model.ClassName,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceStudent(student application.Student) persistence.Student {
	return persistence.Student{
		ID:        student.ID,
		Surname:   student.Surname,
		Name:      student.Name,
		ClassName: student.ClassName,
		CreatedAt: student.CreatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:         model.ID,
		RoomID:     model.RoomID,
		Date:       model.Date,
		Slot:       calendar.Slot(model.TimeSlot),
		HolderName: model.HolderName,
		CreatedAt:  model.CreatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:         booking.ID,
		RoomID:     booking.RoomID,
		Date:       booking.Date,
		TimeSlot:   string(booking.Slot),
		HolderName: booking.HolderName,
		CreatedAt:  booking.CreatedAt,
	}
}

func toApplicationEntry(model persistence.TardinessEntry) application.TardinessEntry {
	return application.TardinessEntry{
		ID:        model.ID,
		StudentID: model.StudentID,
		Date:      model.Date,
		TimeOfDay: model.TimeOfDay,
		Reason:    sanction.ReasonCode(model.ReasonCode),
		Notified:  model.Notified,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceEntry(entry application.TardinessEntry) persistence.TardinessEntry {
	return persistence.TardinessEntry{
		ID:         entry.ID,
		StudentID:  entry.StudentID,
		Date:       entry.Date,
		TimeOfDay:  entry.TimeOfDay,
		ReasonCode: string(entry.Reason),
		Notified:   entry.Notified,
		CreatedAt:  entry.CreatedAt,
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
