package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuthMiddleware guards administrative routes with a bearer token.
// An empty token disables the guard.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			got := strings.TrimPrefix(auth, prefix)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
