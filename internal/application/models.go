package application

import (
	"strings"
	"time"

	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/sanction"
)

// Room is a bookable classroom or lab.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Student is reference data for the tardiness ledger.
type Student struct {
	ID        string
	Surname   string
	Name      string
	ClassName string
	CreatedAt time.Time
}

// FullName renders the student as "Surname Name".
func (s Student) FullName() string {
	return strings.TrimSpace(s.Surname + " " + s.Name)
}

// Booking is the exclusive occupation of one room slot on one date.
type Booking struct {
	ID         string
	RoomID     string
	Date       time.Time
	Slot       calendar.Slot
	HolderName string
	CreatedAt  time.Time
}

// TardinessEntry is one late arrival recorded for a student.
type TardinessEntry struct {
	ID        string
	StudentID string
	Date      time.Time
	TimeOfDay string
	Reason    sanction.ReasonCode
	Notified  bool
	CreatedAt time.Time
}

// BookParams wraps the data required to book a slot.
type BookParams struct {
	Actor      permission.Actor
	RoomID     string
	Date       time.Time
	Slot       string
	HolderName string
}

// BookingFilter narrows booking range queries. Zero fields are ignored.
type BookingFilter struct {
	RoomID     string
	From       *time.Time
	To         *time.Time
	HolderName string
}

// TardinessFilter narrows ledger queries. Zero fields are ignored.
type TardinessFilter struct {
	StudentID string
	Date      *time.Time
}

// EntryInput carries the fields of a new tardiness entry.
type EntryInput struct {
	Date      time.Time
	TimeOfDay string
	Code      sanction.ReasonCode
	// Pending keeps the entry in the caller's ledger without writing it.
	Pending bool
}

// TimeOfDayLayout is the format of tardiness arrival times.
const TimeOfDayLayout = "15:04"
