package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/persistence"
)

var (
	admin    = permission.Actor{ID: "u-admin", Role: permission.RoleAdmin, DisplayName: "Segreteria"}
	rossi    = permission.Actor{ID: "u-rossi", Role: permission.RoleStandard, DisplayName: "Rossi"}
	bianchi  = permission.Actor{ID: "u-bianchi", Role: permission.RoleStandard, DisplayName: "Bianchi"}
	nobody   = permission.Actor{}
	fixedNow = time.Date(2025, 3, 10, 7, 45, 0, 0, time.UTC)
)

func date(value string) time.Time {
	t, err := calendar.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock() time.Time { return fixedNow }

// storeStub is an in-memory implementation of every repository interface that
// reports failures with the persistence sentinels, like the real adapters.
type storeStub struct {
	mu sync.Mutex

	rooms    map[string]Room
	students map[string]Student
	bookings map[string]Booking
	entries  []TardinessEntry

	// failures injected per operation name
	errs map[string]error
	// skipPrecheck hides existing bookings from FindBookingBySlot to force
	// the unique constraint path.
	skipPrecheck bool
	calls        map[string]int
}

func newStoreStub() *storeStub {
	return &storeStub{
		rooms:    map[string]Room{},
		students: map[string]Student{},
		bookings: map[string]Booking{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (s *storeStub) fail(op string) error {
	s.calls[op]++
	return s.errs[op]
}

func (s *storeStub) addRoom(id, name string) {
	s.rooms[id] = Room{ID: id, Name: name}
}

func (s *storeStub) addStudent(id, surname, name, class string) {
	s.students[id] = Student{ID: id, Surname: surname, Name: name, ClassName: class}
}

func (s *storeStub) addEntry(entry TardinessEntry) {
	s.entries = append(s.entries, entry)
}

func (s *storeStub) GetRoom(ctx context.Context, id string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetRoom"); err != nil {
		return Room{}, err
	}
	room, ok := s.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *storeStub) ListRooms(ctx context.Context) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListRooms"); err != nil {
		return nil, err
	}
	out := make([]Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *storeStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateRoom"); err != nil {
		return Room{}, err
	}
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return Room{}, persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return room, nil
}

func (s *storeStub) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteRoom"); err != nil {
		return err
	}
	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.RoomID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.rooms, id)
	return nil
}

func (s *storeStub) GetStudent(ctx context.Context, id string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetStudent"); err != nil {
		return Student{}, err
	}
	st, ok := s.students[id]
	if !ok {
		return Student{}, persistence.ErrNotFound
	}
	return st, nil
}

func (s *storeStub) ListStudents(ctx context.Context) ([]Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListStudents"); err != nil {
		return nil, err
	}
	out := make([]Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *storeStub) CreateStudent(ctx context.Context, student Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateStudent"); err != nil {
		return Student{}, err
	}
	if _, ok := s.students[student.ID]; ok {
		return Student{}, persistence.ErrDuplicate
	}
	s.students[student.ID] = student
	return student, nil
}

func (s *storeStub) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateBooking"); err != nil {
		return Booking{}, err
	}
	for _, b := range s.bookings {
		if b.RoomID == booking.RoomID && b.Date.Equal(booking.Date) && b.Slot == booking.Slot {
			return Booking{}, persistence.ErrDuplicate
		}
	}
	s.bookings[booking.ID] = booking
	return booking, nil
}

func (s *storeStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetBooking"); err != nil {
		return Booking{}, err
	}
	b, ok := s.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return b, nil
}

func (s *storeStub) FindBookingBySlot(ctx context.Context, roomID string, day time.Time, slot string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindBookingBySlot"); err != nil {
		return Booking{}, err
	}
	if s.skipPrecheck && s.calls["FindBookingBySlot"] == 1 {
		return Booking{}, persistence.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.RoomID == roomID && b.Date.Equal(day) && string(b.Slot) == slot {
			return b, nil
		}
	}
	return Booking{}, persistence.ErrNotFound
}

func (s *storeStub) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListBookings"); err != nil {
		return nil, err
	}
	out := make([]Booking, 0)
	for _, b := range s.bookings {
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.From != nil && b.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && b.Date.After(*filter.To) {
			continue
		}
		if filter.HolderName != "" && b.HolderName != filter.HolderName {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *storeStub) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteBooking"); err != nil {
		return err
	}
	if _, ok := s.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *storeStub) CreateEntry(ctx context.Context, entry TardinessEntry) (TardinessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateEntry"); err != nil {
		return TardinessEntry{}, err
	}
	if _, ok := s.students[entry.StudentID]; !ok {
		return TardinessEntry{}, persistence.ErrForeignKeyViolation
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *storeStub) GetEntry(ctx context.Context, id string) (TardinessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetEntry"); err != nil {
		return TardinessEntry{}, err
	}
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return TardinessEntry{}, persistence.ErrNotFound
}

func (s *storeStub) UpdateEntry(ctx context.Context, entry TardinessEntry) (TardinessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateEntry"); err != nil {
		return TardinessEntry{}, err
	}
	for i, e := range s.entries {
		if e.ID == entry.ID {
			s.entries[i] = entry
			return entry, nil
		}
	}
	return TardinessEntry{}, persistence.ErrNotFound
}

func (s *storeStub) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteEntry"); err != nil {
		return err
	}
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *storeStub) ListEntries(ctx context.Context, filter TardinessFilter) ([]TardinessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListEntries"); err != nil {
		return nil, err
	}
	out := make([]TardinessEntry, 0)
	for _, e := range s.entries {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.Date != nil && !e.Date.Equal(*filter.Date) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *storeStub) entry(id string) (TardinessEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return TardinessEntry{}, false
}
