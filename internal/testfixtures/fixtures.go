package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/persistence"
	"github.com/example/checkclass/internal/sanction"
)

var (
	roomCounter    uint64
	studentCounter uint64
	bookingCounter uint64
	entryCounter   uint64
)

var referenceTime = time.Date(2025, time.March, 10, 7, 45, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures: a
// Monday morning before the first lesson.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime.
func ReferenceDate() time.Time {
	return calendar.DateOf(referenceTime)
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic room record.
type RoomFixture struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Aula %03d", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the room identifier.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// Persistence converts the fixture into its persistence model.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt}
}

// Application converts the fixture into its application model.
func (f RoomFixture) Application() application.Room {
	return application.Room{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt}
}

// ---------------------------- Student fixtures ----------------------------

// StudentFixture represents a deterministic student record.
type StudentFixture struct {
	ID        string
	Surname   string
	Name      string
	ClassName string
	CreatedAt time.Time
}

// StudentOption configures the generated student fixture.
type StudentOption func(*StudentFixture)

// NewStudentFixture returns a deterministic student fixture with optional overrides.
func NewStudentFixture(opts ...StudentOption) StudentFixture {
	idx := atomic.AddUint64(&studentCounter, 1)
	fixture := StudentFixture{
		ID:        fmt.Sprintf("student-%03d", idx),
		Surname:   fmt.Sprintf("Cognome%03d", idx),
		Name:      fmt.Sprintf("Nome%03d", idx),
		ClassName: "1A",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStudentID overrides the student identifier.
func WithStudentID(id string) StudentOption {
	return func(f *StudentFixture) { f.ID = id }
}

// WithStudentName overrides surname and name.
func WithStudentName(surname, name string) StudentOption {
	return func(f *StudentFixture) {
		f.Surname = surname
		f.Name = name
	}
}

// WithStudentClass overrides the class name.
func WithStudentClass(class string) StudentOption {
	return func(f *StudentFixture) { f.ClassName = class }
}

// Persistence converts the fixture into its persistence model.
func (f StudentFixture) Persistence() persistence.Student {
	return persistence.Student{ID: f.ID, Surname: f.Surname, Name: f.Name, ClassName: f.ClassName, CreatedAt: f.CreatedAt}
}

// Application converts the fixture into its application model.
func (f StudentFixture) Application() application.Student {
	return application.Student{ID: f.ID, Surname: f.Surname, Name: f.Name, ClassName: f.ClassName, CreatedAt: f.CreatedAt}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	ID         string
	RoomID     string
	Date       time.Time
	Slot       string
	HolderName string
	CreatedAt  time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a booking of the first timetable slot on
// ReferenceDate, held by "Rossi".
func NewBookingFixture(roomID string, opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		ID:         fmt.Sprintf("booking-%03d", idx),
		RoomID:     roomID,
		Date:       ReferenceDate(),
		Slot:       "08:15",
		HolderName: "Rossi",
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the booking identifier.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

// WithBookingSlot overrides date and slot.
func WithBookingSlot(date time.Time, slot string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = calendar.DateOf(date)
		f.Slot = slot
	}
}

// WithBookingHolder overrides the holder name.
func WithBookingHolder(holder string) BookingOption {
	return func(f *BookingFixture) { f.HolderName = holder }
}

// Persistence converts the fixture into its persistence model.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:         f.ID,
		RoomID:     f.RoomID,
		Date:       f.Date,
		TimeSlot:   f.Slot,
		HolderName: f.HolderName,
		CreatedAt:  f.CreatedAt,
	}
}

// Application converts the fixture into its application model.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:         f.ID,
		RoomID:     f.RoomID,
		Date:       f.Date,
		Slot:       calendar.Slot(f.Slot),
		HolderName: f.HolderName,
		CreatedAt:  f.CreatedAt,
	}
}

// ------------------------- Tardiness entry fixtures -------------------------

// EntryFixture represents a deterministic tardiness entry.
type EntryFixture struct {
	ID        string
	StudentID string
	Date      time.Time
	TimeOfDay string
	Reason    sanction.ReasonCode
	Notified  bool
	CreatedAt time.Time
}

// EntryOption configures the generated entry fixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a personal late arrival at 08:20 on ReferenceDate.
func NewEntryFixture(studentID string, opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	fixture := EntryFixture{
		ID:        fmt.Sprintf("entry-%03d", idx),
		StudentID: studentID,
		Date:      ReferenceDate(),
		TimeOfDay: "08:20",
		Reason:    sanction.Personal,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryID overrides the entry identifier.
func WithEntryID(id string) EntryOption {
	return func(f *EntryFixture) { f.ID = id }
}

// WithEntryReason overrides the reason code.
func WithEntryReason(code sanction.ReasonCode) EntryOption {
	return func(f *EntryFixture) { f.Reason = code }
}

// WithEntryNotified overrides the notified flag.
func WithEntryNotified(notified bool) EntryOption {
	return func(f *EntryFixture) { f.Notified = notified }
}

// WithEntryDate overrides the entry date.
func WithEntryDate(date time.Time) EntryOption {
	return func(f *EntryFixture) { f.Date = calendar.DateOf(date) }
}

// Persistence converts the fixture into its persistence model.
func (f EntryFixture) Persistence() persistence.TardinessEntry {
	return persistence.TardinessEntry{
		ID:         f.ID,
		StudentID:  f.StudentID,
		Date:       f.Date,
		TimeOfDay:  f.TimeOfDay,
		ReasonCode: string(f.Reason),
		Notified:   f.Notified,
		CreatedAt:  f.CreatedAt,
	}
}

// Application converts the fixture into its application model.
func (f EntryFixture) Application() application.TardinessEntry {
	return application.TardinessEntry{
		ID:        f.ID,
		StudentID: f.StudentID,
		Date:      f.Date,
		TimeOfDay: f.TimeOfDay,
		Reason:    f.Reason,
		Notified:  f.Notified,
		CreatedAt: f.CreatedAt,
	}
}

// ---------------------------------- Seeding ----------------------------------

// SeedRooms stores the fixtures, failing the test on error.
func SeedRooms(tb testing.TB, store persistence.RoomRepository, rooms ...RoomFixture) {
	tb.Helper()
	for _, r := range rooms {
		if err := store.CreateRoom(context.Background(), r.Persistence()); err != nil {
			tb.Fatalf("seed room %s: %v", r.ID, err)
		}
	}
}

// SeedStudents stores the fixtures, failing the test on error.
func SeedStudents(tb testing.TB, store persistence.StudentRepository, students ...StudentFixture) {
	tb.Helper()
	for _, s := range students {
		if err := store.CreateStudent(context.Background(), s.Persistence()); err != nil {
			tb.Fatalf("seed student %s: %v", s.ID, err)
		}
	}
}

// SeedBookings stores the fixtures, failing the test on error.
func SeedBookings(tb testing.TB, store persistence.BookingRepository, bookings ...BookingFixture) {
	tb.Helper()
	for _, b := range bookings {
		if err := store.CreateBooking(context.Background(), b.Persistence()); err != nil {
			tb.Fatalf("seed booking %s: %v", b.ID, err)
		}
	}
}

// SeedEntries stores the fixtures in order, failing the test on error.
func SeedEntries(tb testing.TB, store persistence.TardinessRepository, entries ...EntryFixture) {
	tb.Helper()
	for _, e := range entries {
		if err := store.CreateEntry(context.Background(), e.Persistence()); err != nil {
			tb.Fatalf("seed entry %s: %v", e.ID, err)
		}
	}
}
