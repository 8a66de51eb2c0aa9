// Package trace carries a per-run trace ID through context so that every
// log line of one sync run or one event handling can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey struct{}

// NewTraceID generates a fresh random trace ID.
func NewTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// HeaderName is the HTTP header used to propagate the trace ID to the
// agent service.
func HeaderName() string {
	return "X-Trace-ID"
}
