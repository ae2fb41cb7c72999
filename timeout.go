package api

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that adds a deadline to the request context.
// A typed handler that returns the context's deadline error is answered
// with 503 Service Unavailable.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
