package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/checkclass/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: &ConflictError{Slot: "08:15"}, want: "conflict"},
		{err: ErrPermissionDenied, want: "permission_denied"},
		{err: fmt.Errorf("wrapped: %w", ErrNotFound), want: "not_found"},
		{err: ErrEmptyLedger, want: "empty_ledger"},
		{err: ErrInvalidState, want: "invalid_state"},
		{err: ErrStorageUnavailable, want: "storage_unavailable"},
		{err: &ValidationError{FieldErrors: map[string]string{"date": "required"}}, want: "validation"},
		{err: errors.New("boom"), want: "unexpected"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctxLogger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "BookingService", "Book", "room_id", "room-lab").Info("probe")

	out := buf.String()
	for _, want := range []string{"service=BookingService", "operation=Book", "room_id=room-lab"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output %q", want, out)
		}
	}
}
