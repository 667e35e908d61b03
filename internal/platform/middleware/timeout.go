package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request's context. Store calls observe the deadline,
// surfacing it as a transport failure instead of hanging indefinitely.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
