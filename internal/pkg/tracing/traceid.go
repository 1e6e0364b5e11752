// Package tracing управляет trace ID и OpenTelemetry трейсингом.
//
// Trace ID — 32 hex символа, совместимые с W3C Trace Context:
//
//	traceID := tracing.GenerateTraceID()
//	ctx = tracing.WithTraceID(ctx, traceID)
//	logger.With("trace_id", tracing.TraceIDFromContext(ctx)).Info("Прогон начат")
package tracing

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// GenerateTraceID возвращает случайный trace ID из 32 hex символов.
func GenerateTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// WithTraceID кладёт trace ID в context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext достаёт trace ID из context. Пустая строка, если его нет.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}
