package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts limiter decisions. A nil *Metrics is a no-op.
type Metrics struct {
	Rejected    *prometheus.CounterVec
	StoreErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter, by route class",
		}, []string{"class"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_ratelimit_store_errors_total",
			Help: "Limiter lookups that failed and were let through",
		}),
	}
}

func (m *Metrics) IncRejected(class string) {
	if m != nil {
		m.Rejected.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
