package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
)

type calendarService interface {
	Month(ctx context.Context, roomID string, month time.Time) ([]application.DayOverview, error)
}

// CalendarHandler serves month occupancy views.
type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

// Month handles GET /calendar?month=YYYY-MM&room_id=.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw := queryString(r, "month")
	if raw == "" {
		h.responder.handleServiceError(r.Context(), w, invalidField("month", "required"))
		return
	}
	month, err := calendar.ParseMonth(raw)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, invalidField("month", "month must use the YYYY-MM format"))
		return
	}
	roomID := queryString(r, "room_id")

	days, err := h.service.Month(r.Context(), roomID, month)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Month", "room_id", roomID, "month", raw).
			ErrorContext(r.Context(), "calendar failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := monthResponse{Month: month.Format(calendar.MonthLayout), RoomID: roomID, Days: make([]dayDTO, 0, len(days))}
	for _, day := range days {
		slots := make([]string, 0, len(day.Bookings))
		for _, b := range day.Bookings {
			slots = append(slots, string(b.Slot))
		}
		resp.Days = append(resp.Days, dayDTO{
			Date:        calendar.FormatDate(day.Date),
			Status:      string(day.Day),
			Morning:     string(day.Morning),
			Afternoon:   string(day.Afternoon),
			BookedSlots: slots,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type monthResponse struct {
	Month  string   `json:"month"`
	RoomID string   `json:"room_id,omitempty"`
	Days   []dayDTO `json:"days"`
}

type dayDTO struct {
	Date        string   `json:"date"`
	Status      string   `json:"status"`
	Morning     string   `json:"morning"`
	Afternoon   string   `json:"afternoon"`
	BookedSlots []string `json:"booked_slots"`
}
