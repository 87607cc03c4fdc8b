package postgres

import (
	"time"

	"github.com/example/checkclass/internal/persistence"
)

type roomRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_rooms_name"`
	CreatedAt time.Time `gorm:"not null"`
}

func (roomRow) TableName() string { return "rooms" }

type studentRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Surname   string    `gorm:"type:text;not null;index:idx_students_surname"`
	Name      string    `gorm:"type:text;not null;default:''"`
	ClassName string    `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

func (studentRow) TableName() string { return "students" }

type bookingRow struct {
	ID         string    `gorm:"primaryKey;type:text"`
	RoomID     string    `gorm:"type:text;not null;uniqueIndex:idx_bookings_slot,priority:1"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_bookings_slot,priority:2;index:idx_bookings_date"`
	TimeSlot   string    `gorm:"type:text;not null;uniqueIndex:idx_bookings_slot,priority:3"`
	HolderName string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (bookingRow) TableName() string { return "bookings" }

type entryRow struct {
	ID         string    `gorm:"primaryKey;type:text"`
	Seq        int64     `gorm:"autoIncrement;uniqueIndex:idx_tardiness_seq"`
	StudentID  string    `gorm:"type:text;not null;index:idx_tardiness_student"`
	Date       time.Time `gorm:"type:date;not null;index:idx_tardiness_date"`
	TimeOfDay  string    `gorm:"type:text;not null"`
	ReasonCode string    `gorm:"type:text;not null;check:chk_tardiness_reason,reason_code IN ('T','P','P*')"`
	Notified   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (entryRow) TableName() string { return "tardiness_entries" }

func toRoomRow(r persistence.Room) roomRow {
	return roomRow{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func (r roomRow) model() persistence.Room {
	return persistence.Room{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func toStudentRow(s persistence.Student) studentRow {
	return studentRow{ID: s.ID, Surname: s.Surname, Name: s.Name, ClassName: s.ClassName, CreatedAt: s.CreatedAt.UTC()}
}

func (r studentRow) model() persistence.Student {
	return persistence.Student{ID: r.ID, Surname: r.Surname, Name: r.Name, ClassName: r.ClassName, CreatedAt: r.CreatedAt.UTC()}
}

func toBookingRow(b persistence.Booking) bookingRow {
	return bookingRow{
		ID:         b.ID,
		RoomID:     b.RoomID,
		Date:       dateOnly(b.Date),
		TimeSlot:   b.TimeSlot,
		HolderName: b.HolderName,
		CreatedAt:  b.CreatedAt.UTC(),
	}
}

func (r bookingRow) model() persistence.Booking {
	return persistence.Booking{
		ID:         r.ID,
		RoomID:     r.RoomID,
		Date:       dateOnly(r.Date),
		TimeSlot:   r.TimeSlot,
		HolderName: r.HolderName,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func toEntryRow(e persistence.TardinessEntry) entryRow {
	return entryRow{
		ID:         e.ID,
		StudentID:  e.StudentID,
		Date:       dateOnly(e.Date),
		TimeOfDay:  e.TimeOfDay,
		ReasonCode: e.ReasonCode,
		Notified:   e.Notified,
		CreatedAt:  e.CreatedAt.UTC(),
	}
}

func (r entryRow) model() persistence.TardinessEntry {
	return persistence.TardinessEntry{
		ID:         r.ID,
		StudentID:  r.StudentID,
		Date:       dateOnly(r.Date),
		TimeOfDay:  r.TimeOfDay,
		ReasonCode: r.ReasonCode,
		Notified:   r.Notified,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
