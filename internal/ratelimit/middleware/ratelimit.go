// Package middleware enforces per-client request budgets on HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"phraseguard/internal/ratelimit/metrics"
	"phraseguard/internal/ratelimit/models"
	dErrors "phraseguard/pkg/domain-errors"
	"phraseguard/pkg/platform/httputil"
)

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit models.Limit) (models.Result, error)
}

type Middleware struct {
	store    Store
	limit    models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	disabled bool
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) { mw.metrics = m }
}

func WithClock(c clockwork.Clock) Option {
	return func(mw *Middleware) { mw.clock = c }
}

// WithDisabled lets every request through.
func WithDisabled(disabled bool) Option {
	return func(mw *Middleware) { mw.disabled = disabled }
}

func New(store Store, limit models.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.limit.Requests <= 0 || m.store == nil {
		m.disabled = true
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// Limit returns middleware that charges one request per call against the
// caller's budget for class. Store failures let the request through.
func (m *Middleware) Limit(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			result, err := m.store.Allow(ctx, models.Key(class, ClientIP(r)), m.limit)
			if err != nil {
				m.metrics.IncStoreErrors()
				m.logger.ErrorContext(ctx, "failed to check rate limit", "class", class, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncRejected(class)
				retry := result.RetryAfter(m.clock.Now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// ClientIP prefers the first X-Forwarded-For hop, then the connection's
// remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
