// Package httpapi assembles the public HTTP surface.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phraseguard/internal/platform/metrics"
	"phraseguard/internal/platform/middleware"
	"phraseguard/pkg/platform/middleware/requestid"
	"phraseguard/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
	Health   *HealthHandler
	Features []Registrar
}

// NewRouter wires middleware, operational endpoints and every feature handler.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware(cfg.Clock))
	r.Use(middleware.AccessLog(cfg.Logger, cfg.Metrics))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())

	for _, f := range cfg.Features {
		f.Register(r)
	}
	return r
}
