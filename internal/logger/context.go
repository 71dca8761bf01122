package logger

import (
	"context"
	"time"
)

type contextKey struct{}

// LogContext carries request- or job-scoped fields that the Ctx logging
// functions inject automatically.
type LogContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	ClientIP  string
	JobID     int64
	StartTime time.Time
}

// WithContext attaches a LogContext to the context.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext attached to ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext with the start time set to now.
func NewLogContext(requestID string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// WithJob returns a copy carrying the ingest job id.
func (lc *LogContext) WithJob(jobID int64) *LogContext {
	c := *lc
	c.JobID = jobID
	return &c
}

// WithTrace returns a copy carrying trace identifiers.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := *lc
	c.TraceID = traceID
	c.SpanID = spanID
	return &c
}

// DurationMs returns milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
