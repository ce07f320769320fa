package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"phraseguard/internal/ratelimit/middleware"
	"phraseguard/internal/ratelimit/middleware/mocks"
	"phraseguard/internal/ratelimit/models"
	"phraseguard/internal/ratelimit/store/bucket"
)

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks Store

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusAccepted)
})

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checks", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLimit(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	limit := models.Limit{Requests: 2, Window: time.Minute}

	t.Run("allows within budget and sets headers", func(t *testing.T) {
		mw := middleware.New(bucket.NewInMemory(clock), limit, nil, middleware.WithClock(clock))
		h := mw.Limit("check_submit")(okHandler)

		rec := serve(h, "10.0.0.1:5000")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("rejects over budget with retry-after", func(t *testing.T) {
		mw := middleware.New(bucket.NewInMemory(clock), limit, nil, middleware.WithClock(clock))
		h := mw.Limit("check_submit")(okHandler)

		serve(h, "10.0.0.2:5000")
		serve(h, "10.0.0.2:5000")
		rec := serve(h, "10.0.0.2:5000")

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limited", body["error"])
	})

	t.Run("budgets are per client", func(t *testing.T) {
		mw := middleware.New(bucket.NewInMemory(clock), limit, nil, middleware.WithClock(clock))
		h := mw.Limit("check_submit")(okHandler)

		serve(h, "10.0.0.3:5000")
		serve(h, "10.0.0.3:5000")
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.3:5000").Code)
		assert.Equal(t, http.StatusAccepted, serve(h, "10.0.0.4:5000").Code)
	})

	t.Run("store failure lets the request through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().Allow(gomock.Any(), "ratelimit:check_submit:10.0.0.5", limit).
			Return(models.Result{}, errors.New("redis down"))

		mw := middleware.New(store, limit, nil)
		rec := serve(mw.Limit("check_submit")(okHandler), "10.0.0.5:5000")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("disabled never consults the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		mw := middleware.New(store, limit, nil, middleware.WithDisabled(true))
		assert.Equal(t, http.StatusAccepted, serve(mw.Limit("check_submit")(okHandler), "10.0.0.6:5000").Code)
	})

	t.Run("zero budget disables limiting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)

		mw := middleware.New(store, models.Limit{}, nil)
		assert.Equal(t, http.StatusAccepted, serve(mw.Limit("check_submit")(okHandler), "10.0.0.7:5000").Code)
	})
}

func TestClientIP(t *testing.T) {
	t.Run("first forwarded hop wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
		req.RemoteAddr = "10.0.0.1:443"
		assert.Equal(t, "203.0.113.9", middleware.ClientIP(req))
	})

	t.Run("falls back to remote host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.7:8080"
		assert.Equal(t, "192.0.2.7", middleware.ClientIP(req))
	})

	t.Run("remote address without port", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.8"
		assert.Equal(t, "192.0.2.8", middleware.ClientIP(req))
	})
}
