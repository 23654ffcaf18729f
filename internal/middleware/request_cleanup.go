package middleware

import (
	"io"
	"net/http"
)

// DrainAndCloseRequest caps the request body at maxBodyBytes and, once the
// handler is done, drains whatever it left unread and closes the body so the
// connection can be reused. A non-positive maxBodyBytes disables the cap.
func DrainAndCloseRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && maxBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)

			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
