package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for embedding generation.
type Metrics struct {
	PhrasesEmbedded prometheus.Counter
	PhrasesFailed   prometheus.Counter
	JobsFinished    *prometheus.CounterVec
	EmbedLatency    prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		PhrasesEmbedded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_embedding_phrases_embedded_total",
			Help: "Dictionary phrases that received a vector",
		}),
		PhrasesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phraseguard_embedding_phrases_failed_total",
			Help: "Dictionary phrases whose vector generation failed",
		}),
		JobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phraseguard_embedding_jobs_finished_total",
			Help: "Embedding jobs reaching a terminal status",
		}, []string{"status"}),
		EmbedLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "phraseguard_embedding_request_duration_seconds",
			Help:    "Latency of a single embedding request",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncEmbedded() {
	if m != nil {
		m.PhrasesEmbedded.Inc()
	}
}

func (m *Metrics) IncFailed() {
	if m != nil {
		m.PhrasesFailed.Inc()
	}
}

func (m *Metrics) IncJobFinished(status string) {
	if m != nil {
		m.JobsFinished.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveEmbedLatency(d time.Duration) {
	if m != nil {
		m.EmbedLatency.Observe(d.Seconds())
	}
}
