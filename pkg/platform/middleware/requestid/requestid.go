// Package requestid propagates a request identifier into the context and the
// response headers.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"phraseguard/pkg/requestcontext"
)

const Header = "X-Request-ID"

// maxInboundLength bounds caller-supplied IDs before they reach logs.
const maxInboundLength = 128

// Middleware reuses a caller-supplied X-Request-ID or mints a new one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(Header))
		if reqID == "" || len(reqID) > maxInboundLength {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
