package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
)

type reportService interface {
	Bookings(ctx context.Context, filter application.BookingFilter) ([]application.BookingRow, error)
	Tardiness(ctx context.Context, filter application.TardinessFilter) ([]application.TardinessRow, error)
}

// ReportHandler serves booking and tardiness report rows.
type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

// Bookings handles GET /reports/bookings?from=&to=&room_id=&holder=.
func (h *ReportHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	filter := application.BookingFilter{
		RoomID:     queryString(r, "room_id"),
		From:       from,
		To:         to,
		HolderName: queryString(r, "holder"),
	}
	rows, err := h.service.Bookings(r.Context(), filter)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "ReportHandler", "Bookings").ErrorContext(r.Context(), "booking report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := bookingReportResponse{Rows: make([]bookingRowDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, bookingRowDTO{
			Date:       calendar.FormatDate(row.Date),
			TimeSlot:   row.Slot,
			RoomName:   row.RoomName,
			HolderName: row.HolderName,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Tardiness handles GET /reports/tardiness?date=&student_id=.
func (h *ReportHandler) Tardiness(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := queryDate(r, "date")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	filter := application.TardinessFilter{StudentID: queryString(r, "student_id"), Date: date}
	if filter.StudentID == "" && filter.Date == nil {
		h.responder.handleServiceError(r.Context(), w, invalidField("date", "required"))
		return
	}

	rows, err := h.service.Tardiness(r.Context(), filter)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "ReportHandler", "Tardiness").ErrorContext(r.Context(), "tardiness report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := tardinessReportResponse{Rows: make([]tardinessRowDTO, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, tardinessRowDTO{
			Number:      row.Number,
			StudentName: row.StudentName,
			ClassName:   row.ClassName,
			Date:        calendar.FormatDate(row.Date),
			TimeOfDay:   row.TimeOfDay,
			ReasonCode:  string(row.Reason),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type bookingReportResponse struct {
	Rows []bookingRowDTO `json:"rows"`
}

type bookingRowDTO struct {
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	RoomName   string `json:"room_name"`
	HolderName string `json:"holder_name"`
}

type tardinessReportResponse struct {
	Rows []tardinessRowDTO `json:"rows"`
}

type tardinessRowDTO struct {
	Number      int    `json:"number"`
	StudentName string `json:"student_name"`
	ClassName   string `json:"class_name"`
	Date        string `json:"date"`
	TimeOfDay   string `json:"time_of_day"`
	ReasonCode  string `json:"reason_code"`
}
