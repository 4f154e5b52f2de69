package middleware

import "net/http"

// tooLargeBody matches the API's error envelope.
const tooLargeBody = `{"error":{"code":"too_large","message":"request body too large"}}` + "\n"

// NewMaxBodySizeHandler caps request bodies at limit bytes. A declared
// Content-Length over the limit is rejected with 413 up front; other bodies
// are wrapped in http.MaxBytesReader, so handlers see *http.MaxBytesError
// once they read past the limit.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tooLargeBody))
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
