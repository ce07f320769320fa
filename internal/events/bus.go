package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"phraseguard/internal/events/metrics"
)

// Publisher is the port aggregates' callers use to hand off pulled events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Handler receives events from the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type subscription struct {
	handler Handler
	names   map[Name]struct{}
}

func (s subscription) wants(n Name) bool {
	if len(s.names) == 0 {
		return true
	}
	_, ok := s.names[n]
	return ok
}

// Bus delivers events synchronously, in the order given, to every matching
// subscriber. A failing or panicking handler is logged and counted; the
// remaining handlers still receive the event.
type Bus struct {
	mu      sync.RWMutex
	subs    []subscription
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Subscribe registers h for the named events, or for every event when no
// names are given.
func (b *Bus) Subscribe(h Handler, names ...Name) {
	sub := subscription{handler: h}
	if len(names) > 0 {
		sub.names = make(map[Name]struct{}, len(names))
		for _, n := range names {
			sub.names[n] = struct{}{}
		}
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, events ...Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, e := range events {
		if e == nil {
			continue
		}
		b.metrics.IncPublished(string(e.EventName()))
		for _, sub := range subs {
			if !sub.wants(e.EventName()) {
				continue
			}
			if err := b.deliver(ctx, sub.handler, e); err != nil {
				b.metrics.IncHandlerFailure(string(e.EventName()))
				b.logger.ErrorContext(ctx, "event handler failed",
					"event", e.EventName(),
					"aggregate_id", e.AggregateID(),
					"error", err,
				)
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}

// Nop discards events. Useful where a publisher is required but nothing listens.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}
