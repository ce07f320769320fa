package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks event delivery.
type Metrics struct {
	EventsPublished *prometheus.CounterVec
	HandlerFailures *prometheus.CounterVec
	Dropped         prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_events_published_total",
			Help: "Domain events delivered to the bus, by event name",
		}, []string{"event"}),
		HandlerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_event_handler_failures_total",
			Help: "Event handler errors and panics, by event name",
		}, []string{"event"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_events_dropped_total",
			Help: "Events evicted from a full sink buffer before delivery",
		}),
	}
}

func (m *Metrics) IncPublished(event string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) IncHandlerFailure(event string) {
	if m != nil {
		m.HandlerFailures.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}
