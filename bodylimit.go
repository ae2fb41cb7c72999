package api

import "net/http"

// BodyLimit returns middleware that limits the maximum request body size for
// every route. A declared Content-Length over the limit is rejected up front;
// otherwise binding fails with 413 once the limit is crossed. WithBodyLimit
// sets a tighter per-route limit.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErrorResponse(w, Errorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", maxBytes))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
