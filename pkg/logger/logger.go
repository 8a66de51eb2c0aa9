package logger

import (
	"context"

	"go.uber.org/zap"

	"dailyfix/pkg/trace"
)

func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace attaches the trace_id from ctx, if any, to the logger.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return l.With(zap.String("trace_id", traceID))
	}
	return l
}
