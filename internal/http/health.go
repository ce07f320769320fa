package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"phraseguard/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// Checker reports whether a dependency is reachable.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Health(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthHandler answers 200 while every registered dependency responds and
// 503 otherwise.
type HealthHandler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{checks: make(map[string]Checker), logger: logger}
}

// Add registers a dependency under name. Nil checkers are ignored so callers
// can pass optional infrastructure unconditionally.
func (h *HealthHandler) Add(name string, c Checker) *HealthHandler {
	if c != nil {
		h.checks[name] = c
	}
	return h
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Dependencies = make(map[string]string, len(h.checks))
	}
	for name, c := range h.checks {
		if err := c.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.Dependencies[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
