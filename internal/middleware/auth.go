package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// AdminAuth guards the admin endpoints with a static bearer token.
// Requests without "Authorization: Bearer <token>" are rejected with 401.
// An empty configured token rejects everything, so a missing ADMIN_TOKEN
// never leaves the admin surface open. The comparison is constant-time.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Authentication required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
