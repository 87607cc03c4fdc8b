package http

import (
	"context"
	"net/http"
)

// RouterConfig wires handlers into the API. Nil handlers leave their routes
// unregistered. Auth, when set, guards every route except /healthz.
type RouterConfig struct {
	Bookings   *BookingHandler
	Calendar   *CalendarHandler
	Ledger     *LedgerHandler
	Reports    *ReportHandler
	Directory  *DirectoryHandler
	Health     func(ctx context.Context) error
	Auth       func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API handler.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	guard := func(h http.HandlerFunc) http.Handler {
		if cfg.Auth == nil {
			return h
		}
		return cfg.Auth(h)
	}

	mux.HandleFunc("GET /healthz", healthHandler(cfg.Health))

	if cfg.Directory != nil {
		mux.Handle("GET /rooms", guard(cfg.Directory.ListRooms))
		mux.Handle("POST /rooms", guard(cfg.Directory.CreateRoom))
		mux.Handle("DELETE /rooms/{id}", guard(cfg.Directory.DeleteRoom))
		mux.Handle("GET /students", guard(cfg.Directory.ListStudents))
		mux.Handle("POST /students", guard(cfg.Directory.CreateStudent))
	}

	if cfg.Bookings != nil {
		mux.Handle("GET /bookings", guard(cfg.Bookings.ListForDate))
		mux.Handle("POST /bookings", guard(cfg.Bookings.Create))
		mux.Handle("DELETE /bookings/{id}", guard(cfg.Bookings.Delete))
		mux.Handle("GET /rooms/{id}/bookings", guard(cfg.Bookings.ListForRoom))
	}

	if cfg.Calendar != nil {
		mux.Handle("GET /calendar", guard(cfg.Calendar.Month))
	}

	if cfg.Ledger != nil {
		mux.Handle("GET /students/{id}/ledger", guard(cfg.Ledger.Show))
		mux.Handle("POST /students/{id}/ledger", guard(cfg.Ledger.Record))
		mux.Handle("DELETE /students/{id}/ledger/last", guard(cfg.Ledger.UndoLast))
		mux.Handle("POST /students/{id}/ledger/demote", guard(cfg.Ledger.Demote))
		mux.Handle("PATCH /entries/{id}", guard(cfg.Ledger.PatchEntry))
		mux.Handle("PUT /entries/{id}/notified", guard(cfg.Ledger.MarkNotified))
		mux.Handle("DELETE /entries/{id}/notified", guard(cfg.Ledger.ClearNotified))
		mux.Handle("GET /attention", guard(cfg.Ledger.Attention))
	}

	if cfg.Reports != nil {
		mux.Handle("GET /reports/bookings", guard(cfg.Reports.Bookings))
		mux.Handle("GET /reports/tardiness", guard(cfg.Reports.Tardiness))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	responder := newResponder(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}
