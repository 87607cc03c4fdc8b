package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/checkclass/internal/calendar"
)

// DayOverview is the calendar cell of one date.
type DayOverview struct {
	Date      time.Time
	Day       calendar.DayStatus
	Morning   calendar.HalfDayStatus
	Afternoon calendar.HalfDayStatus
	Bookings  []Booking
}

// CalendarService derives month views from a fresh read of the bookings.
type CalendarService struct {
	bookings BookingRepository
	slots    calendar.TimeSlotSet
	logger   *slog.Logger
}

// NewCalendarService constructs a calendar service.
func NewCalendarService(bookings BookingRepository, slots calendar.TimeSlotSet) *CalendarService {
	return NewCalendarServiceWithLogger(bookings, slots, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(bookings BookingRepository, slots calendar.TimeSlotSet, logger *slog.Logger) *CalendarService {
	if slots.Len() == 0 {
		slots = calendar.DefaultTimeSlotSet()
	}
	return &CalendarService{bookings: bookings, slots: slots, logger: defaultLogger(logger)}
}

// Month returns one overview per day of the month containing month. An empty
// roomID merges every room, so a slot counts as booked when any room holds it.
func (s *CalendarService) Month(ctx context.Context, roomID string, month time.Time) (days []DayOverview, err error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "CalendarService", "Month",
		"room_id", roomID,
		"month", month.Format(calendar.MonthLayout),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build month calendar", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	dates := calendar.MonthDays(month)
	first, last := dates[0], dates[len(dates)-1]

	var bookings []Booking
	if s.bookings != nil {
		bookings, err = s.bookings.ListBookings(ctx, BookingFilter{RoomID: roomID, From: &first, To: &last})
		if err != nil {
			return nil, mapRepoError(err)
		}
	}

	byDay := make(map[string][]Booking, len(dates))
	for _, b := range bookings {
		key := calendar.FormatDate(b.Date)
		byDay[key] = append(byDay[key], b)
	}

	days = make([]DayOverview, 0, len(dates))
	for _, date := range dates {
		dayBookings := byDay[calendar.FormatDate(date)]
		days = append(days, s.overview(date, dayBookings))
	}
	return days, nil
}

// Day classifies a single date from the given bookings.
func (s *CalendarService) Day(date time.Time, bookings []Booking) DayOverview {
	return s.overview(calendar.DateOf(date), bookings)
}

func (s *CalendarService) overview(date time.Time, bookings []Booking) DayOverview {
	booked := make([]calendar.Slot, 0, len(bookings))
	for _, b := range bookings {
		booked = append(booked, b.Slot)
	}
	occupancy := s.slots.Classify(booked)
	if bookings == nil {
		bookings = []Booking{}
	}
	return DayOverview{
		Date:      date,
		Day:       occupancy.Day,
		Morning:   occupancy.Morning,
		Afternoon: occupancy.Afternoon,
		Bookings:  bookings,
	}
}
