package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/checkclass/internal/sanction"
)

// BookingRow is the report projection of a booking.
type BookingRow struct {
	Date       time.Time
	Slot       string
	RoomName   string
	HolderName string
}

// TardinessRow is the report projection of a tardiness entry, numbered from 1.
type TardinessRow struct {
	Number      int
	StudentName string
	ClassName   string
	Date        time.Time
	TimeOfDay   string
	Reason      sanction.ReasonCode
}

// ReportService shapes bookings and ledger entries into report rows.
type ReportService struct {
	bookings *BookingService
	rooms    RoomRepository
	students StudentRepository
	entries  TardinessRepository
	logger   *slog.Logger
}

// NewReportService constructs a report service.
func NewReportService(bookings *BookingService, rooms RoomRepository, students StudentRepository, entries TardinessRepository) *ReportService {
	return NewReportServiceWithLogger(bookings, rooms, students, entries, nil)
}

// NewReportServiceWithLogger constructs a report service with a specified logger.
func NewReportServiceWithLogger(bookings *BookingService, rooms RoomRepository, students StudentRepository, entries TardinessRepository, logger *slog.Logger) *ReportService {
	return &ReportService{bookings: bookings, rooms: rooms, students: students, entries: entries, logger: defaultLogger(logger)}
}

// Bookings returns report rows for the bookings matching filter, in calendar
// order.
func (s *ReportService) Bookings(ctx context.Context, filter BookingFilter) (rows []BookingRow, err error) {
	if s == nil {
		return nil, fmt.Errorf("ReportService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "ReportService", "Bookings", "room_id", filter.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build booking report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rows)).DebugContext(ctx, "booking report built")
	}()

	if s.bookings == nil {
		return nil, fmt.Errorf("booking service not configured")
	}

	bookings, err := s.bookings.ListRange(ctx, filter)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	if s.rooms != nil {
		rooms, listErr := s.rooms.ListRooms(ctx)
		if listErr != nil {
			return nil, mapRepoError(listErr)
		}
		for _, room := range rooms {
			names[room.ID] = room.Name
		}
	}

	rows = make([]BookingRow, 0, len(bookings))
	for _, b := range bookings {
		name, ok := names[b.RoomID]
		if !ok {
			name = b.RoomID
		}
		rows = append(rows, BookingRow{Date: b.Date, Slot: string(b.Slot), RoomName: name, HolderName: b.HolderName})
	}
	return rows, nil
}

// Tardiness returns numbered report rows for the entries matching filter,
// ordered by date and arrival time.
func (s *ReportService) Tardiness(ctx context.Context, filter TardinessFilter) (rows []TardinessRow, err error) {
	if s == nil {
		return nil, fmt.Errorf("ReportService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "ReportService", "Tardiness", "student_id", filter.StudentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build tardiness report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rows)).DebugContext(ctx, "tardiness report built")
	}()

	if s.entries == nil || s.students == nil {
		return []TardinessRow{}, nil
	}

	if filter.StudentID != "" {
		if _, err = s.students.GetStudent(ctx, filter.StudentID); err != nil {
			return nil, mapRepoError(err)
		}
	}

	entries, err := s.entries.ListEntries(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	byID := make(map[string]Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.TimeOfDay < b.TimeOfDay
	})

	rows = make([]TardinessRow, 0, len(entries))
	for i, e := range entries {
		student := byID[e.StudentID]
		rows = append(rows, TardinessRow{
			Number:      i + 1,
			StudentName: student.FullName(),
			ClassName:   student.ClassName,
			Date:        e.Date,
			TimeOfDay:   e.TimeOfDay,
			Reason:      e.Reason,
		})
	}
	return rows, nil
}
