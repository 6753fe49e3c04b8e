package middleware

import (
	"net/http"
)

// NoStore returns a middleware that forbids caching of responses. Token and
// credential payloads must never land in shared caches or browser history.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
