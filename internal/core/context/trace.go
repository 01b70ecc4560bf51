package context

import (
	"context"

	"github.com/google/uuid"
)

// Origins of a unit of work.
const (
	OriginHTTP   = "http"
	OriginWorker = "worker"
	OriginSeed   = "seed"
)

// TraceContext correlates the log lines of one request or background job.
type TraceContext struct {
	TraceID   string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// WithTrace attaches t to ctx.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns the trace attached to ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return t
}

// GetRequestID returns the request id of ctx, or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext starts a fresh trace for work that did not arrive over HTTP.
func NewTraceContext(origin string) *TraceContext {
	return &TraceContext{
		TraceID:   uuid.NewString(),
		RequestID: uuid.NewString(),
		Origin:    origin,
	}
}
