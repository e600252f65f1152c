package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging context threaded from the
// channel down through dispatch, so every log line in a request's
// path carries the same correlation fields without each call site
// re-deriving them.
type LogContext struct {
	TraceID       string
	SpanID        string
	ChannelID     uint32
	SessionID     string
	ServiceName   string
	RequestHandle uint32
	StartTime     time.Time
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if absent.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext scoped to channelID.
func NewLogContext(channelID uint32) *LogContext {
	return &LogContext{ChannelID: channelID, StartTime: time.Now()}
}

func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithService returns a copy with the dispatched service name set.
func (lc *LogContext) WithService(name string, requestHandle uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ServiceName = name
		clone.RequestHandle = requestHandle
	}
	return clone
}

// WithSession returns a copy with the session id set.
func (lc *LogContext) WithSession(sessionID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SessionID = sessionID
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
