package brestapp

import (
	"context"
	"net/http"

	"github.com/advdv/brest"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id to and from clients.
const RequestIDHeader = "X-Request-ID"

// ctxKey is the key type for context values.
type ctxKey int

const (
	ctxKeyLogger ctxKey = iota
	ctxKeyRequestID
)

// NewRequestContext returns the request context initializer of the app. It
// assigns every request an id, reusing a valid incoming X-Request-ID, and stores
// a request scoped logger.
func NewRequestContext(logs *zap.Logger) brest.RequestContextFunc {
	return func(r *http.Request) (context.Context, error) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		ctx = context.WithValue(ctx, ctxKeyLogger, logs.With(zap.String("request_id", id)))

		return ctx, nil
	}
}

// RequestID returns the id assigned to the request, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Log returns a trace-correlated zap logger from the context. Outside of a
// request it returns a no-op logger.
func Log(ctx context.Context) *zap.Logger {
	logs, ok := ctx.Value(ctxKeyLogger).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}

	return logs.With(traceFields(ctx)...)
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
