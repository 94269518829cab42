package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const headerAdminKey = "X-Admin-Key"

// AdminKey guards admin routes with a shared key checked against a bcrypt
// hash. With an empty hash the routes answer 404, as if they did not exist.
func AdminKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				http.NotFound(w, r)
				return
			}
			key := r.Header.Get(headerAdminKey)
			if key == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing admin key")
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				writeAuthError(w, http.StatusForbidden, "invalid admin key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
