package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/checkclass/internal/application"
)

var (
	errBadRequestBody = errors.New("Formato della richiesta non valido.")
	errMissingToken   = errors.New("Autenticazione richiesta.")
	errInvalidToken   = errors.New("Sessione non valida. Effettua di nuovo l'accesso.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_TAKEN",
			Message:   conflictMessage(conflict),
		})
		return
	}

	switch {
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "SLOT_TAKEN", Message: localizedStatusMessage(http.StatusConflict)})
	case errors.Is(err, application.ErrPermissionDenied):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "PERMISSION_DENIED",
			Message:   "Non hai i permessi per eseguire questa operazione.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "La risorsa richiesta non esiste."})
	case errors.Is(err, application.ErrEmptyLedger):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "EMPTY_LEDGER",
			Message:   "Non ci sono ritardi da annullare.",
		})
	case errors.Is(err, application.ErrInvalidState):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_STATE",
			Message:   "Operazione non consentita nello stato attuale del ritardo.",
		})
	case errors.Is(err, application.ErrStorageUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "STORAGE_UNAVAILABLE",
			Message:   "Archivio dati non raggiungibile. Riprova più tardi.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "I dati inseriti non sono validi.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

// handleDecodeError answers 400 for unreadable bodies and 422 for bodies
// that decoded but failed validation.
func (r responder) handleDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequestBody) {
		r.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	r.handleServiceError(ctx, w, err)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func conflictMessage(conflict *application.ConflictError) string {
	if conflict.Holder == "" {
		return fmt.Sprintf("L'ora %s del %s è già prenotata.", conflict.Slot, conflict.Date)
	}
	return fmt.Sprintf("L'ora %s del %s è già prenotata da %s.", conflict.Slot, conflict.Date, conflict.Holder)
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Richiesta non valida."
	case http.StatusUnauthorized:
		return "Autenticazione richiesta."
	case http.StatusForbidden:
		return "Non hai i permessi per eseguire questa operazione."
	case http.StatusNotFound:
		return "La risorsa richiesta non esiste."
	case http.StatusConflict:
		return "L'ora richiesta è già prenotata."
	case http.StatusUnprocessableEntity:
		return "I dati inseriti non sono validi."
	case http.StatusServiceUnavailable:
		return "Servizio temporaneamente non disponibile."
	default:
		return "Si è verificato un errore interno."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "room is required":
		return "L'aula è obbligatoria."
	case "date is required", "required":
		return "Il campo è obbligatorio."
	case "time slot is required":
		return "L'ora è obbligatoria."
	case "time slot is not part of the timetable":
		return "L'ora indicata non fa parte dell'orario scolastico."
	case "holder name is required":
		return "Il nome del docente è obbligatorio."
	case "must not be before from":
		return "La data finale non può precedere quella iniziale."
	case "name is required":
		return "Il nome è obbligatorio."
	case "a room with this name already exists":
		return "Esiste già un'aula con questo nome."
	case "room still has bookings":
		return "L'aula ha ancora delle prenotazioni."
	case "surname is required":
		return "Il cognome è obbligatorio."
	case "class is required":
		return "La classe è obbligatoria."
	case "a student with this id already exists":
		return "Esiste già uno studente con questo identificativo."
	case "reason code must be one of T, P, P*":
		return "La motivazione deve essere T, P o P*."
	case "time must use the HH:MM format":
		return "L'orario deve avere il formato HH:MM."
	case "date must use the YYYY-MM-DD format":
		return "La data deve avere il formato AAAA-MM-GG."
	case "month must use the YYYY-MM format":
		return "Il mese deve avere il formato AAAA-MM."
	case "value is too long":
		return "Il valore è troppo lungo."
	case "rejected by the store":
		return "Il dato è stato rifiutato dall'archivio."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
