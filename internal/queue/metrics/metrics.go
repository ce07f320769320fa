package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check queue.
type Metrics struct {
	Pending           prometheus.Gauge
	InFlight          prometheus.Gauge
	Dispatched        prometheus.Counter
	Retries           prometheus.Counter
	PermanentFailures *prometheus.CounterVec
	ProcessDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Pending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "phraseguard_queue_pending",
			Help: "Checks waiting for a worker slot",
		}),
		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "phraseguard_queue_in_flight",
			Help: "Checks currently being processed",
		}),
		Dispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_queue_dispatched_total",
			Help: "Processing attempts started, including retries",
		}),
		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_queue_retries_scheduled_total",
			Help: "Retries scheduled after a failed attempt",
		}),
		PermanentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_queue_permanent_failures_total",
			Help: "Checks recorded as failed by the queue, by reason",
		}, []string{"reason"}), // reason: "exhausted", "permanent"
		ProcessDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phraseguard_queue_process_duration_seconds",
			Help:    "Duration of a single processing attempt",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}), // outcome: "success", "error"
	}
}

func (m *Metrics) SetDepth(pending, inFlight int) {
	if m != nil {
		m.Pending.Set(float64(pending))
		m.InFlight.Set(float64(inFlight))
	}
}

func (m *Metrics) IncDispatched() {
	if m != nil {
		m.Dispatched.Inc()
	}
}

func (m *Metrics) IncRetries() {
	if m != nil {
		m.Retries.Inc()
	}
}

func (m *Metrics) IncPermanentFailure(reason string) {
	if m != nil {
		m.PermanentFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveProcess(outcome string, d time.Duration) {
	if m != nil {
		m.ProcessDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}
