package persistence

import "time"

// Room is a bookable classroom or laboratory.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Student is a pupil whose late arrivals are tracked.
type Student struct {
	ID        string
	Surname   string
	Name      string
	ClassName string
	CreatedAt time.Time
}

// Booking reserves a room for one slot of one day. At most one booking may
// exist per (RoomID, Date, TimeSlot).
type Booking struct {
	ID         string
	RoomID     string
	Date       time.Time
	TimeSlot   string
	HolderName string
	CreatedAt  time.Time
}

// TardinessEntry is one late arrival recorded on a student's ledger.
type TardinessEntry struct {
	ID         string
	StudentID  string
	Date       time.Time
	TimeOfDay  string
	ReasonCode string
	Notified   bool
	CreatedAt  time.Time
}
