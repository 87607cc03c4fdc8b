package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/example/checkclass/internal/application"
	"github.com/example/checkclass/internal/calendar"
	"github.com/example/checkclass/internal/permission"
)

const timestampLayout = time.RFC3339Nano

func invalidField(field, message string) error {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

// queryDate parses a YYYY-MM-DD query parameter. A missing value returns nil.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return nil, invalidField(name, "date must use the YYYY-MM-DD format")
	}
	return &date, nil
}

func requiredQueryDate(r *http.Request, name string) (time.Time, error) {
	date, err := queryDate(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if date == nil {
		return time.Time{}, invalidField(name, "required")
	}
	return *date, nil
}

func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// actorFrom returns the actor placed in the context by RequireActor. Routes
// mounted without the middleware see the zero actor, which no permission
// rule accepts.
func actorFrom(r *http.Request) permission.Actor {
	actor, _ := ActorFromContext(r.Context())
	return actor
}
