// Package memory provides an in-process persistence.Store used by tests and
// by the "memory" database driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/checkclass/internal/persistence"
)

type slotKey struct {
	roomID string
	date   string
	slot   string
}

type storedEntry struct {
	seq   uint64
	entry persistence.TardinessEntry
}

// Storage keeps every record in maps guarded by a single mutex.
type Storage struct {
	mu       sync.RWMutex
	rooms    map[string]persistence.Room
	students map[string]persistence.Student
	bookings map[string]persistence.Booking
	slots    map[slotKey]string
	entries  map[string]storedEntry
	seq      uint64
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		rooms:    make(map[string]persistence.Room),
		students: make(map[string]persistence.Student),
		bookings: make(map[string]persistence.Booking),
		slots:    make(map[slotKey]string),
		entries:  make(map[string]storedEntry),
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- RoomRepository implementation ---

// CreateRoom stores a new room.
func (s *Storage) CreateRoom(_ context.Context, room persistence.Room) error {
	if room.ID == "" || room.Name == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.rooms {
		if existing.Name == room.Name {
			return persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return nil
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID.
func (s *Storage) ListRooms(_ context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// DeleteRoom removes a room that has no bookings.
func (s *Storage) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, booking := range s.bookings {
		if booking.RoomID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.rooms, id)
	return nil
}

// --- StudentRepository implementation ---

// CreateStudent stores a new student.
func (s *Storage) CreateStudent(_ context.Context, student persistence.Student) error {
	if student.ID == "" || student.Surname == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[student.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.students[student.ID] = student
	return nil
}

// GetStudent retrieves a student by ID.
func (s *Storage) GetStudent(_ context.Context, id string) (persistence.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return persistence.Student{}, persistence.ErrNotFound
	}
	return student, nil
}

// ListStudents returns all students ordered by surname, name, then ID.
func (s *Storage) ListStudents(_ context.Context) ([]persistence.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]persistence.Student, 0, len(s.students))
	for _, student := range s.students {
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.Surname != b.Surname {
			return a.Surname < b.Surname
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return students, nil
}

// --- BookingRepository implementation ---

// CreateBooking stores a booking unless its slot is already taken.
func (s *Storage) CreateBooking(_ context.Context, booking persistence.Booking) error {
	if booking.ID == "" || booking.RoomID == "" || booking.TimeSlot == "" || booking.Date.IsZero() {
		return persistence.ErrConstraintViolation
	}
	booking.Date = dateOnly(booking.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[booking.RoomID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.bookings[booking.ID]; ok {
		return persistence.ErrDuplicate
	}
	key := slotKey{roomID: booking.RoomID, date: dateKey(booking.Date), slot: booking.TimeSlot}
	if _, taken := s.slots[key]; taken {
		return persistence.ErrDuplicate
	}

	s.bookings[booking.ID] = booking
	s.slots[key] = booking.ID
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

// FindBookingBySlot returns the booking occupying the given slot.
func (s *Storage) FindBookingBySlot(_ context.Context, roomID string, date time.Time, slot string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slots[slotKey{roomID: roomID, date: dateKey(date), slot: slot}]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return s.bookings[id], nil
}

// ListBookings returns the bookings matching filter ordered by date, slot, then room.
func (s *Storage) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var from, to string
	if filter.From != nil {
		from = dateKey(*filter.From)
	}
	if filter.To != nil {
		to = dateKey(*filter.To)
	}

	bookings := make([]persistence.Booking, 0)
	for _, booking := range s.bookings {
		day := dateKey(booking.Date)
		switch {
		case filter.RoomID != "" && booking.RoomID != filter.RoomID:
			continue
		case filter.HolderName != "" && booking.HolderName != filter.HolderName:
			continue
		case from != "" && day < from:
			continue
		case to != "" && day > to:
			continue
		}
		bookings = append(bookings, booking)
	}

	sort.Slice(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		return a.ID < b.ID
	})
	return bookings, nil
}

// DeleteBooking removes a booking and frees its slot.
func (s *Storage) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.ErrNotFound
	}
	delete(s.slots, slotKey{roomID: booking.RoomID, date: dateKey(booking.Date), slot: booking.TimeSlot})
	delete(s.bookings, id)
	return nil
}

// --- TardinessRepository implementation ---

// CreateEntry appends an entry to its student's ledger.
func (s *Storage) CreateEntry(_ context.Context, entry persistence.TardinessEntry) error {
	if entry.ID == "" || entry.StudentID == "" || entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}
	entry.Date = dateOnly(entry.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[entry.StudentID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.entries[entry.ID]; ok {
		return persistence.ErrDuplicate
	}
	s.seq++
	s.entries[entry.ID] = storedEntry{seq: s.seq, entry: entry}
	return nil
}

// GetEntry retrieves an entry by ID.
func (s *Storage) GetEntry(_ context.Context, id string) (persistence.TardinessEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.entries[id]
	if !ok {
		return persistence.TardinessEntry{}, persistence.ErrNotFound
	}
	return stored.entry, nil
}

// UpdateEntry replaces the mutable fields of an entry, keeping its position.
func (s *Storage) UpdateEntry(_ context.Context, entry persistence.TardinessEntry) error {
	if entry.ReasonCode == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[entry.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	updated := stored.entry
	updated.Date = dateOnly(entry.Date)
	updated.TimeOfDay = entry.TimeOfDay
	updated.ReasonCode = entry.ReasonCode
	updated.Notified = entry.Notified
	s.entries[entry.ID] = storedEntry{seq: stored.seq, entry: updated}
	return nil
}

// DeleteEntry removes an entry.
func (s *Storage) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// ListEntries returns entries matching filter in insertion order.
func (s *Storage) ListEntries(_ context.Context, filter persistence.TardinessFilter) ([]persistence.TardinessEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var day string
	if filter.Date != nil {
		day = dateKey(*filter.Date)
	}

	matched := make([]storedEntry, 0)
	for _, stored := range s.entries {
		if filter.StudentID != "" && stored.entry.StudentID != filter.StudentID {
			continue
		}
		if day != "" && dateKey(stored.entry.Date) != day {
			continue
		}
		matched = append(matched, stored)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	entries := make([]persistence.TardinessEntry, len(matched))
	for i, stored := range matched {
		entries[i] = stored.entry
	}
	return entries, nil
}
