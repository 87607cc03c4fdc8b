package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/permission"
	"github.com/example/checkclass/internal/token"
)

func TestRequireActor(t *testing.T) {
	t.Parallel()

	issuer, err := token.NewIssuer("middleware-secret", 0, nil)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	valid, err := issuer.Issue(rossiActor)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen permission.Actor
	protected := RequireActor(issuer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name           string
		header         string
		cookie         *http.Cookie
		expectedStatus int
	}{
		{name: "missing credentials", expectedStatus: http.StatusUnauthorized},
		{name: "malformed bearer", header: "Bearer malformed", expectedStatus: http.StatusUnauthorized},
		{name: "basic scheme ignored", header: "Basic " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "valid bearer", header: "Bearer " + valid, expectedStatus: http.StatusNoContent},
		{name: "valid cookie", cookie: &http.Cookie{Name: TokenCookieName, Value: valid}, expectedStatus: http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = permission.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, rec.Code)
			}
			if tc.expectedStatus == http.StatusNoContent && seen != rossiActor {
				t.Fatalf("expected actor %+v in context, got %+v", rossiActor, seen)
			}
		})
	}
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	t.Parallel()

	var found bool
	handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !found {
		t.Fatal("expected request logger in context")
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected wrapped status to pass through, got %d", rec.Code)
	}
}

func TestHandleServiceErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "conflict", err: &application.ConflictError{RoomID: "lab", Date: "2025-03-10", Slot: "08:15", Holder: "Rossi"}, want: http.StatusConflict},
		{name: "wrapped conflict sentinel", err: fmt.Errorf("book: %w", application.ErrConflict), want: http.StatusConflict},
		{name: "permission", err: application.ErrPermissionDenied, want: http.StatusForbidden},
		{name: "not found", err: application.ErrNotFound, want: http.StatusNotFound},
		{name: "empty ledger", err: application.ErrEmptyLedger, want: http.StatusUnprocessableEntity},
		{name: "invalid state", err: fmt.Errorf("%w: entry e-1", application.ErrInvalidState), want: http.StatusUnprocessableEntity},
		{name: "validation", err: invalidField("date", "required"), want: http.StatusUnprocessableEntity},
		{name: "storage", err: fmt.Errorf("%w: disk full", application.ErrStorageUnavailable), want: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	r := newResponder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.handleServiceError(context.Background(), rec, tt.err)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	healthy := NewRouter(RouterConfig{})
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	failing := NewRouter(RouterConfig{Health: func(context.Context) error { return errors.New("db down") }})
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
