package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Second, Result{ResetAt: now}.RetryAfter(now))
	assert.Equal(t, time.Second, Result{ResetAt: now.Add(-time.Minute)}.RetryAfter(now))
	assert.Equal(t, 2*time.Second, Result{ResetAt: now.Add(1500 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, time.Minute, Result{ResetAt: now.Add(time.Minute)}.RetryAfter(now))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ratelimit:check_submit:abc", Key("check_submit", "  ABC "))
}
