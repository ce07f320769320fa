// Package requesttime pins one "now" per HTTP request so every timestamp a
// request produces (check creation, event times) agrees.
package requesttime

import (
	"net/http"

	"github.com/jonboulle/clockwork"

	"phraseguard/pkg/requestcontext"
)

// Middleware captures the clock's current time at the start of the request.
func Middleware(clock clockwork.Clock) func(http.Handler) http.Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
