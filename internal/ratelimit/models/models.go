package models

import (
	"strings"
	"time"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a rejected caller should wait, rounded up to whole
// seconds and never less than one.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}

// Limit is a request budget per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Key builds a bucket key from a route class and a caller identifier.
func Key(class, identifier string) string {
	return "ratelimit:" + class + ":" + strings.ToLower(strings.TrimSpace(identifier))
}
