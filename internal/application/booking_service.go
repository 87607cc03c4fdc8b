package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/persistence"
)

// BookingService owns room slot occupancy: booking, cancelling and listing.
type BookingService struct {
	rooms       RoomRepository
	bookings    BookingRepository
	slots       calendar.TimeSlotSet
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(rooms RoomRepository, bookings BookingRepository, slots calendar.TimeSlotSet, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(rooms, bookings, slots, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(rooms RoomRepository, bookings BookingRepository, slots calendar.TimeSlotSet, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if slots.Len() == 0 {
		slots = calendar.DefaultTimeSlotSet()
	}
	return &BookingService{
		rooms:       rooms,
		bookings:    bookings,
		slots:       slots,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Slots returns the timetable the service validates against.
func (s *BookingService) Slots() calendar.TimeSlotSet {
	return s.slots
}

// CanCancel reports whether actor may cancel booking. Cancel re-checks the
// same rule.
func (s *BookingService) CanCancel(actor permission.Actor, booking Booking) bool {
	return permission.CanCancel(actor, booking.HolderName)
}

// Book reserves a room slot. An occupied slot yields a *ConflictError naming
// the current holder, whether it is detected before the insert or by the
// store's unique constraint.
func (s *BookingService) Book(ctx context.Context, params BookParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Book",
		"actor_id", params.Actor.ID,
		"room_id", params.RoomID,
		"time_slot", params.Slot,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "slot booked")
	}()

	if !permission.CanBook(params.Actor) {
		err = ErrPermissionDenied
		return
	}

	holder := strings.TrimSpace(params.HolderName)
	if holder == "" {
		holder = params.Actor.DisplayName
	}

	vErr := s.validateBooking(params, holder)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.rooms == nil || s.bookings == nil {
		err = fmt.Errorf("booking repositories not configured")
		return
	}

	if _, err = s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		err = mapRepoError(err)
		return
	}

	date := calendar.DateOf(params.Date)
	slot := calendar.Slot(strings.TrimSpace(params.Slot))

	if err = s.checkFree(ctx, params.RoomID, date, slot); err != nil {
		return
	}

	booking = Booking{
		ID:         s.idGenerator(),
		RoomID:     params.RoomID,
		Date:       date,
		Slot:       slot,
		HolderName: holder,
		CreatedAt:  s.now(),
	}

	var persisted Booking
	persisted, err = s.bookings.CreateBooking(ctx, booking)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = s.conflictFor(ctx, params.RoomID, date, slot)
			return
		}
		err = mapRepoError(err)
		return
	}

	booking = persisted
	return
}

// Cancel removes a booking the actor is allowed to cancel.
func (s *BookingService) Cancel(ctx context.Context, actor permission.Actor, bookingID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "Cancel",
		"actor_id", actor.ID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return mapRepoError(err)
	}
	if !s.CanCancel(actor, booking) {
		return ErrPermissionDenied
	}
	if err = s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// ListForDate returns the bookings of one date ordered by timetable position,
// then room name. An empty roomID lists every room.
func (s *BookingService) ListForDate(ctx context.Context, roomID string, date time.Time) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "ListForDate", "room_id", roomID, "date", calendar.FormatDate(date))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).DebugContext(ctx, "bookings listed")
	}()

	if s.bookings == nil {
		return []Booking{}, nil
	}

	day := calendar.DateOf(date)
	bookings, err = s.bookings.ListBookings(ctx, BookingFilter{RoomID: roomID, From: &day, To: &day})
	if err != nil {
		return nil, mapRepoError(err)
	}

	names, err := s.roomNames(ctx)
	if err != nil {
		return nil, err
	}
	s.sortBookings(bookings, names)
	return bookings, nil
}

// ListForRoom returns the full booking history of one room ordered by date
// and timetable position.
func (s *BookingService) ListForRoom(ctx context.Context, roomID string) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "ListForRoom", "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list room bookings", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.rooms == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking repositories not configured")
	}
	if _, err = s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, mapRepoError(err)
	}

	bookings, err = s.bookings.ListBookings(ctx, BookingFilter{RoomID: roomID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.sortBookings(bookings, nil)
	return bookings, nil
}

// ListRange returns the bookings matching filter ordered by date, timetable
// position and room name.
func (s *BookingService) ListRange(ctx context.Context, filter BookingFilter) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "ListRange", "room_id", filter.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list booking range", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		vErr := &ValidationError{}
		vErr.add("to", "must not be before from")
		return nil, vErr
	}
	if s.bookings == nil {
		return []Booking{}, nil
	}

	bookings, err = s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}

	names, err := s.roomNames(ctx)
	if err != nil {
		return nil, err
	}
	s.sortBookings(bookings, names)
	return bookings, nil
}

func (s *BookingService) validateBooking(params BookParams, holder string) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	slot := strings.TrimSpace(params.Slot)
	switch {
	case slot == "":
		vErr.add("time_slot", "time slot is required")
	case !s.slots.Contains(calendar.Slot(slot)):
		vErr.add("time_slot", "time slot is not part of the timetable")
	}
	if holder == "" {
		vErr.add("holder_name", "holder name is required")
	}
	return vErr
}

func (s *BookingService) checkFree(ctx context.Context, roomID string, date time.Time, slot calendar.Slot) error {
	existing, err := s.bookings.FindBookingBySlot(ctx, roomID, date, string(slot))
	switch {
	case err == nil:
		return &ConflictError{RoomID: roomID, Date: calendar.FormatDate(date), Slot: string(slot), Holder: existing.HolderName}
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, ErrNotFound):
		return nil
	default:
		return mapRepoError(err)
	}
}

// conflictFor builds the conflict reported when the insert lost a race. The
// holder is best effort: the winning booking may already be gone.
func (s *BookingService) conflictFor(ctx context.Context, roomID string, date time.Time, slot calendar.Slot) *ConflictError {
	conflict := &ConflictError{RoomID: roomID, Date: calendar.FormatDate(date), Slot: string(slot)}
	if existing, err := s.bookings.FindBookingBySlot(ctx, roomID, date, string(slot)); err == nil {
		conflict.Holder = existing.HolderName
	}
	return conflict
}

func (s *BookingService) roomNames(ctx context.Context) (map[string]string, error) {
	if s.rooms == nil {
		return nil, nil
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	names := make(map[string]string, len(rooms))
	for _, room := range rooms {
		names[room.ID] = room.Name
	}
	return names, nil
}

func (s *BookingService) sortBookings(bookings []Booking, roomNames map[string]string) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if ai, bi := s.slotPosition(a.Slot), s.slotPosition(b.Slot); ai != bi {
			return ai < bi
		}
		if an, bn := roomNames[a.RoomID], roomNames[b.RoomID]; an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}

// slotPosition orders unknown slots after every timetable slot.
func (s *BookingService) slotPosition(slot calendar.Slot) int {
	if idx := s.slots.Index(slot); idx >= 0 {
		return idx
	}
	return s.slots.Len()
}
