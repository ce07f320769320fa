package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts check outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	Submitted          prometheus.Counter
	Finished           *prometheus.CounterVec
	ViolationsDetected prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_checks_submitted_total",
			Help: "Checks accepted for processing",
		}),
		Finished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_checks_finished_total",
			Help: "Checks that reached a terminal state, by outcome",
		}, []string{"outcome"}), // outcome: "completed", "failed", "cancelled"
		ViolationsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_violations_detected_total",
			Help: "Violations recorded on completed checks",
		}),
	}
}

func (m *Metrics) IncSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

func (m *Metrics) IncFinished(outcome string) {
	if m != nil {
		m.Finished.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddViolations(n int) {
	if m != nil && n > 0 {
		m.ViolationsDetected.Add(float64(n))
	}
}
