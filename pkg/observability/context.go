package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	requestKey
)

// Attribute names attached to log records by the context-aware handler.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
)

// WithCorrelationID stores the id that ties a scoring request to the events it
// produces.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the stored correlation id or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// EnsureCorrelationID returns ctx unchanged when it already carries a
// correlation id, otherwise it attaches a fresh one.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithCorrelationID(ctx, id), id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey).(string)
	return id
}
