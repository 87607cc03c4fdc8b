package http

import (
	"context"
	"log/slog"

	"github.com/example/checkclass/internal/logging"
	"github.com/example/checkclass/internal/permission"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ContextWithActor returns a derived context containing the authenticated actor.
func ContextWithActor(ctx context.Context, actor permission.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the authenticated actor from context if available.
func ActorFromContext(ctx context.Context) (permission.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(permission.Actor)
	return actor, ok
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
