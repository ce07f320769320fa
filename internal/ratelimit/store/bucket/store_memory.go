// Package bucket holds sliding-window request counters.
package bucket

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"phraseguard/internal/ratelimit/models"
)

// InMemory keeps one sliding window of timestamps per key. Not shared across
// processes.
type InMemory struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	clock   clockwork.Clock
}

type slidingWindow struct {
	timestamps []time.Time
}

func NewInMemory(clock clockwork.Clock) *InMemory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InMemory{buckets: make(map[string]*slidingWindow), clock: clock}
}

// Allow records one request for key when the window still has room.
func (s *InMemory) Allow(_ context.Context, key string, limit models.Limit) (models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	sw := s.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.buckets[key] = sw
	}
	sw.cleanup(now, limit.Window)

	if len(sw.timestamps) >= limit.Requests {
		return models.Result{
			Allowed: false,
			Limit:   limit.Requests,
			ResetAt: sw.timestamps[0].Add(limit.Window),
		}, nil
	}
	sw.timestamps = append(sw.timestamps, now)
	return models.Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(limit.Window),
	}, nil
}

// Reset forgets key.
func (s *InMemory) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

func (sw *slidingWindow) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
