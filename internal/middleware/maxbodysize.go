package middleware

import "net/http"

// NewMaxBodySizeHandler limits request bodies to limit bytes. A declared
// Content-Length over the limit is rejected with 413 before the handler
// runs; streamed bodies are cut off by http.MaxBytesReader, which makes the
// handler's body read fail.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
