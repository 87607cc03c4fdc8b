package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
)

type bookingService interface {
	Book(ctx context.Context, params application.BookParams) (application.Booking, error)
	Cancel(ctx context.Context, actor permission.Actor, bookingID string) error
	ListForDate(ctx context.Context, roomID string, date time.Time) ([]application.Booking, error)
	ListForRoom(ctx context.Context, roomID string) ([]application.Booking, error)
	CanCancel(actor permission.Actor, booking application.Booking) bool
}

// BookingHandler serves the slot registry.
type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	actor := actorFrom(r)
	var req bookingRequest
	if err := decodeRequest(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "invalid booking request", "error", err)
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	date, _ := calendar.ParseDate(req.Date)
	logger := h.log(r.Context(), "Create", "room_id", req.RoomID, "date", req.Date, "time_slot", req.TimeSlot)

	booking, err := h.service.Book(r.Context(), application.BookParams{
		Actor:      actor,
		RoomID:     strings.TrimSpace(req.RoomID),
		Date:       date,
		Slot:       strings.TrimSpace(req.TimeSlot),
		HolderName: strings.TrimSpace(req.HolderName),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: h.toDTO(actor, booking)})
}

// Delete handles DELETE /bookings/{id}.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "booking_id", id)
	if err := h.service.Cancel(r.Context(), actorFrom(r), id); err != nil {
		logger.WarnContext(r.Context(), "booking cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListForDate handles GET /bookings?date=&room_id=.
func (h *BookingHandler) ListForDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := requiredQueryDate(r, "date")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	roomID := queryString(r, "room_id")

	bookings, err := h.service.ListForDate(r.Context(), roomID, date)
	if err != nil {
		h.log(r.Context(), "ListForDate", "room_id", roomID).ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: h.toDTOs(actorFrom(r), bookings)})
}

// ListForRoom handles GET /rooms/{id}/bookings.
func (h *BookingHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID := r.PathValue("id")
	bookings, err := h.service.ListForRoom(r.Context(), roomID)
	if err != nil {
		h.log(r.Context(), "ListForRoom", "room_id", roomID).ErrorContext(r.Context(), "room history failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: h.toDTOs(actorFrom(r), bookings)})
}

func (h *BookingHandler) toDTO(actor permission.Actor, booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:         booking.ID,
		RoomID:     booking.RoomID,
		Date:       calendar.FormatDate(booking.Date),
		TimeSlot:   string(booking.Slot),
		HolderName: booking.HolderName,
		CanCancel:  h.service.CanCancel(actor, booking),
		CreatedAt:  booking.CreatedAt.UTC().Format(timestampLayout),
	}
}

func (h *BookingHandler) toDTOs(actor permission.Actor, bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, h.toDTO(actor, booking))
	}
	return out
}

type bookingRequest struct {
	RoomID     string `json:"room_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot   string `json:"time_slot" validate:"required"`
	HolderName string `json:"holder_name" validate:"max=120"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	HolderName string `json:"holder_name"`
	CanCancel  bool   `json:"can_cancel"`
	CreatedAt  string `json:"created_at"`
}
