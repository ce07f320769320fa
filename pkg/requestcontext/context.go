// Package requestcontext carries the request id and the pinned request time
// from HTTP middleware down to services, which never import net/http.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Time returns the request-scoped time, if middleware pinned one.
func Time(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ContextKeyRequestTime).(time.Time)
	return t, ok
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for workers and tests that never set it.
func Now(ctx context.Context) time.Time {
	if t, ok := Time(ctx); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
