package sink

import (
	"sync"

	"phraseguard/internal/events"
)

// ring is a bounded FIFO of events. When full, the oldest event is dropped.
type ring struct {
	mu      sync.Mutex
	items   []events.Event
	head    int // next write
	tail    int // next read
	count   int
	dropped int64
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &ring{items: make([]events.Event, capacity)}
}

// push appends e and reports whether an older event was evicted.
func (r *ring) push(e events.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := false
	if r.count == len(r.items) {
		r.items[r.tail] = nil
		r.tail = (r.tail + 1) % len(r.items)
		r.count--
		r.dropped++
		evicted = true
	}
	r.items[r.head] = e
	r.head = (r.head + 1) % len(r.items)
	r.count++
	return evicted
}

// popBatch removes up to n events in arrival order.
func (r *ring) popBatch(n int) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	n = min(n, r.count)
	out := make([]events.Event, n)
	for i := range n {
		out[i] = r.items[r.tail]
		r.items[r.tail] = nil
		r.tail = (r.tail + 1) % len(r.items)
	}
	r.count -= n
	return out
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *ring) droppedTotal() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
