package sink

import (
	"context"
	"log/slog"

	"phraseguard/internal/events"
	"phraseguard/internal/events/metrics"
)

const defaultBatchSize = 64

// Buffered moves delivery to a slow handler (Kafka) off the publishing
// goroutine. Handle only enqueues; Run drains in the background. A full
// buffer drops its oldest event.
type Buffered struct {
	next    events.Handler
	buf     *ring
	batch   int
	wake    chan struct{}
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type BufferedOption func(*Buffered)

func WithCapacity(n int) BufferedOption {
	return func(b *Buffered) { b.buf = newRing(n) }
}

func WithBatchSize(n int) BufferedOption {
	return func(b *Buffered) {
		if n > 0 {
			b.batch = n
		}
	}
}

func WithLogger(logger *slog.Logger) BufferedOption {
	return func(b *Buffered) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) BufferedOption {
	return func(b *Buffered) { b.metrics = m }
}

func NewBuffered(next events.Handler, opts ...BufferedOption) *Buffered {
	b := &Buffered{
		next:  next,
		batch: defaultBatchSize,
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.buf == nil {
		b.buf = newRing(0)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Handle implements events.Handler. It never blocks and never fails.
func (b *Buffered) Handle(ctx context.Context, e events.Event) error {
	if b.buf.push(e) {
		b.metrics.IncDropped()
		b.logger.WarnContext(ctx, "event buffer full, dropped oldest event")
	}
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run delivers buffered events until ctx is done. Events still buffered at
// that point are left for Flush.
func (b *Buffered) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
			b.drain(ctx)
		}
	}
}

// Flush delivers whatever is buffered, stopping early if ctx ends.
func (b *Buffered) Flush(ctx context.Context) {
	b.drain(ctx)
	if n := b.buf.len(); n > 0 {
		b.logger.WarnContext(ctx, "event buffer not fully flushed", "remaining", n)
	}
}

func (b *Buffered) Len() int       { return b.buf.len() }
func (b *Buffered) Dropped() int64 { return b.buf.droppedTotal() }

func (b *Buffered) drain(ctx context.Context) {
	for ctx.Err() == nil {
		batch := b.buf.popBatch(b.batch)
		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			if err := b.next.Handle(ctx, e); err != nil {
				b.metrics.IncHandlerFailure(string(e.EventName()))
				b.logger.ErrorContext(ctx, "buffered event delivery failed",
					"event", e.EventName(),
					"aggregate_id", e.AggregateID(),
					"error", err,
				)
			}
		}
	}
}
