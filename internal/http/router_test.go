package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phraseguard/pkg/requestcontext"
	"phraseguard/pkg/testutil"
)

type echoFeature struct{}

func (echoFeature) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.RequestID(r.Context())))
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterMountsFeaturesBehindMiddleware(t *testing.T) {
	router := NewRouter(RouterConfig{
		Logger:   quietLogger(),
		Features: []Registrar{echoFeature{}},
	})

	req := testutil.NewJSONRequest(t, http.MethodGet, "/echo", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := testutil.Do(router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-42", rr.Body.String())
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}

func TestRouterServesMetrics(t *testing.T) {
	router := NewRouter(RouterConfig{Logger: quietLogger()})
	rr := testutil.Do(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealth(t *testing.T) {
	ok := CheckerFunc(func(context.Context) error { return nil })
	down := CheckerFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewHealthHandler(quietLogger()).Add("postgres", ok).Add("redis", nil)
		router := NewRouter(RouterConfig{Logger: quietLogger(), Health: h})

		rr := testutil.Do(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := testutil.Decode[HealthResponse](t, rr)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok"}, body.Dependencies)
	})

	t.Run("dependency down", func(t *testing.T) {
		h := NewHealthHandler(quietLogger()).Add("postgres", ok).Add("redis", down)
		router := NewRouter(RouterConfig{Logger: quietLogger(), Health: h})

		rr := testutil.Do(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := testutil.Decode[HealthResponse](t, rr)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "unavailable", body.Dependencies["redis"])
	})
}
