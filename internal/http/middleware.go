package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/checkclass/internal/permission"
)

// TokenCookieName is the cookie consulted when no Authorization header is sent.
const TokenCookieName = "auth_token"

// ActorParser resolves a bearer token into the acting user.
type ActorParser interface {
	Parse(raw string) (permission.Actor, error)
}

// RequireActor rejects requests without a valid actor token with 401 and
// stores the resolved actor in the request context.
func RequireActor(parser ActorParser, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractTokenFromRequest(r)
			if raw == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
				return
			}

			actor, err := parser.Parse(raw)
			if err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "rejected actor token", "error", err)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: errInvalidToken.Error()})
				return
			}

			logger := LoggerFromContext(r.Context())
			ctx := ContextWithActor(r.Context(), actor)
			if logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("actor_id", actor.ID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a request scoped logger and logs start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
