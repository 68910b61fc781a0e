package middlewares

import (
	"net/http"
)

// RequestSizeLimitMiddleware caps request bodies at maxBytes.
// A declared Content-Length over the cap is answered with 413 up front; chunked bodies
// are cut by http.MaxBytesReader, which the JSON decoder reports as too large.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
