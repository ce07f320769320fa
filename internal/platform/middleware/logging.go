// Package middleware holds transport middleware that needs platform metrics.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"phraseguard/internal/platform/metrics"
	"phraseguard/pkg/requestcontext"
)

// AccessLog logs each request and records its latency under the matched
// chi route pattern. Requests carrying a User-Agent also log the parsed
// client.
func AccessLog(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(sw.status), duration)

			level := slog.LevelInfo
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", sw.status),
				slog.Duration("duration", duration),
				slog.String("request_id", requestcontext.RequestID(r.Context())),
			}
			attrs = append(attrs, clientAttrs(r.UserAgent())...)
			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}

func clientAttrs(raw string) []slog.Attr {
	if raw == "" {
		return nil
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	return []slog.Attr{
		slog.String("browser", browser),
		slog.String("browser_version", version),
		slog.String("os", ua.OS()),
		slog.Bool("bot", ua.Bot()),
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
