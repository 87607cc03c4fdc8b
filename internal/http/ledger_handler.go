package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/sanction"
)

type ledgerService interface {
	Open(ctx context.Context, studentID string) (*application.Ledger, error)
	RecordEntry(ctx context.Context, actor permission.Actor, ledger *application.Ledger, input application.EntryInput) (application.RecordResult, error)
	UndoLast(ctx context.Context, actor permission.Actor, ledger *application.Ledger) (application.TardinessEntry, error)
	SweepDemote(ctx context.Context, actor permission.Actor, ledger *application.Ledger) (int, error)
	UpdateEntry(ctx context.Context, actor permission.Actor, entryID string, patch application.EntryPatch) (application.TardinessEntry, error)
}

type notificationService interface {
	MarkNotified(ctx context.Context, actor permission.Actor, entryID string) (application.TardinessEntry, error)
	ClearNotified(ctx context.Context, actor permission.Actor, entryID string) (application.TardinessEntry, error)
	AttentionList(ctx context.Context) ([]application.AttentionItem, error)
}

// LedgerHandler serves student tardiness ledgers and the notification gate.
type LedgerHandler struct {
	ledgers       ledgerService
	notifications notificationService
	responder     responder
	logger        *slog.Logger
}

// NewLedgerHandler constructs a LedgerHandler.
func NewLedgerHandler(ledgers ledgerService, notifications notificationService, logger *slog.Logger) *LedgerHandler {
	base := defaultLogger(logger)
	return &LedgerHandler{ledgers: ledgers, notifications: notifications, responder: newResponder(base), logger: base}
}

func (h *LedgerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "LedgerHandler", operation, attrs...)
}

func (h *LedgerHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.ledgers == nil || h.notifications == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Show handles GET /students/{id}/ledger.
func (h *LedgerHandler) Show(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	studentID := r.PathValue("id")
	ledger, err := h.ledgers.Open(r.Context(), studentID)
	if err != nil {
		h.log(r.Context(), "Show", "student_id", studentID).ErrorContext(r.Context(), "ledger open failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toLedgerResponse(ledger))
}

// Record handles POST /students/{id}/ledger.
func (h *LedgerHandler) Record(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req entryRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}

	studentID := r.PathValue("id")
	logger := h.log(r.Context(), "Record", "student_id", studentID)
	ledger, err := h.ledgers.Open(r.Context(), studentID)
	if err != nil {
		logger.WarnContext(r.Context(), "ledger open failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	date, _ := calendar.ParseDate(req.Date)
	result, err := h.ledgers.RecordEntry(r.Context(), actorFrom(r), ledger, application.EntryInput{
		Date:      date,
		TimeOfDay: req.TimeOfDay,
		Code:      sanction.ReasonCode(req.ReasonCode),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "entry rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_id", result.Entry.ID, "promoted", result.Promoted).InfoContext(r.Context(), "entry recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, recordResponse{
		Entry:         toEntryDTO(result.Entry, result.State),
		RequestedCode: string(result.Requested),
		Promoted:      result.Promoted,
	})
}

// UndoLast handles DELETE /students/{id}/ledger/last.
func (h *LedgerHandler) UndoLast(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	studentID := r.PathValue("id")
	logger := h.log(r.Context(), "UndoLast", "student_id", studentID)
	ledger, err := h.ledgers.Open(r.Context(), studentID)
	if err == nil {
		var removed application.TardinessEntry
		removed, err = h.ledgers.UndoLast(r.Context(), actorFrom(r), ledger)
		if err == nil {
			logger.With("entry_id", removed.ID).InfoContext(r.Context(), "last entry removed")
			h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(removed, application.Persisted)})
			return
		}
	}

	logger.WarnContext(r.Context(), "undo failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

// Demote handles POST /students/{id}/ledger/demote.
func (h *LedgerHandler) Demote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	studentID := r.PathValue("id")
	logger := h.log(r.Context(), "Demote", "student_id", studentID)
	ledger, err := h.ledgers.Open(r.Context(), studentID)
	if err == nil {
		var demoted int
		demoted, err = h.ledgers.SweepDemote(r.Context(), actorFrom(r), ledger)
		if err == nil {
			logger.With("demoted", demoted).InfoContext(r.Context(), "ledger demoted")
			h.responder.writeJSON(r.Context(), w, http.StatusOK, demoteResponse{Demoted: demoted, Ledger: toLedgerResponse(ledger)})
			return
		}
	}

	logger.WarnContext(r.Context(), "demote failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

// PatchEntry handles PATCH /entries/{id}. All supplied fields are written in
// one update, or none of them.
func (h *LedgerHandler) PatchEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req patchEntryRequest
	if err := decodeRequest(r, &req); err != nil {
		h.responder.handleDecodeError(r.Context(), w, err)
		return
	}
	if req.Date == nil && req.TimeOfDay == nil && req.ReasonCode == nil {
		h.responder.handleServiceError(r.Context(), w, invalidField("entry", "required"))
		return
	}

	entryID := r.PathValue("id")
	actor := actorFrom(r)
	logger := h.log(r.Context(), "PatchEntry", "entry_id", entryID)

	patch := application.EntryPatch{TimeOfDay: req.TimeOfDay}
	if req.Date != nil {
		date, _ := calendar.ParseDate(*req.Date)
		patch.Date = &date
	}
	if req.ReasonCode != nil {
		code := sanction.ReasonCode(*req.ReasonCode)
		patch.Code = &code
	}

	entry, err := h.ledgers.UpdateEntry(r.Context(), actor, entryID, patch)
	if err != nil {
		logger.WarnContext(r.Context(), "entry update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(entry, application.Persisted)})
}

// MarkNotified handles PUT /entries/{id}/notified.
func (h *LedgerHandler) MarkNotified(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.setNotified(w, r, "MarkNotified", h.notifications.MarkNotified)
}

// ClearNotified handles DELETE /entries/{id}/notified.
func (h *LedgerHandler) ClearNotified(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.setNotified(w, r, "ClearNotified", h.notifications.ClearNotified)
}

func (h *LedgerHandler) setNotified(w http.ResponseWriter, r *http.Request, operation string,
	apply func(context.Context, permission.Actor, string) (application.TardinessEntry, error)) {
	entryID := r.PathValue("id")
	logger := h.log(r.Context(), operation, "entry_id", entryID)

	entry, err := apply(r.Context(), actorFrom(r), entryID)
	if err != nil {
		logger.WarnContext(r.Context(), "notification flag update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("notified", entry.Notified).InfoContext(r.Context(), "notification flag updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(entry, application.Persisted)})
}

// Attention handles GET /attention.
func (h *LedgerHandler) Attention(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	items, err := h.notifications.AttentionList(r.Context())
	if err != nil {
		h.log(r.Context(), "Attention").ErrorContext(r.Context(), "attention list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := attentionResponse{Students: make([]attentionDTO, 0, len(items))}
	for _, item := range items {
		resp.Students = append(resp.Students, attentionDTO{
			Student:   toStudentDTO(item.Student),
			Escalated: item.Escalated,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type entryRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeOfDay  string `json:"time_of_day" validate:"required,datetime=15:04"`
	ReasonCode string `json:"reason_code" validate:"required,oneof=T P P*"`
}

type patchEntryRequest struct {
	Date       *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeOfDay  *string `json:"time_of_day,omitempty" validate:"omitempty,datetime=15:04"`
	ReasonCode *string `json:"reason_code,omitempty" validate:"omitempty,oneof=T P P*"`
}

type entryDTO struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	Date       string `json:"date"`
	TimeOfDay  string `json:"time_of_day"`
	ReasonCode string `json:"reason_code"`
	Notified   bool   `json:"notified"`
	State      string `json:"state"`
}

func toEntryDTO(entry application.TardinessEntry, state application.ItemState) entryDTO {
	return entryDTO{
		ID:         entry.ID,
		StudentID:  entry.StudentID,
		Date:       calendar.FormatDate(entry.Date),
		TimeOfDay:  entry.TimeOfDay,
		ReasonCode: string(entry.Reason),
		Notified:   entry.Notified,
		State:      state.String(),
	}
}

type entryResponse struct {
	Entry entryDTO `json:"entry"`
}

type recordResponse struct {
	Entry         entryDTO `json:"entry"`
	RequestedCode string   `json:"requested_code"`
	Promoted      bool     `json:"promoted"`
}

type ledgerResponse struct {
	StudentID string     `json:"student_id"`
	Entries   []entryDTO `json:"entries"`
}

func toLedgerResponse(ledger *application.Ledger) ledgerResponse {
	items := ledger.Items()
	resp := ledgerResponse{StudentID: ledger.StudentID, Entries: make([]entryDTO, 0, len(items))}
	for _, item := range items {
		resp.Entries = append(resp.Entries, toEntryDTO(item.Entry, item.State))
	}
	return resp
}

type demoteResponse struct {
	Demoted int            `json:"demoted"`
	Ledger  ledgerResponse `json:"ledger"`
}

type attentionResponse struct {
	Students []attentionDTO `json:"students"`
}

type attentionDTO struct {
	Student   studentDTO `json:"student"`
	Escalated int        `json:"escalated"`
}
