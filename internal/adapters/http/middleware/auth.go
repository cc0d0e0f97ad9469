package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const userContextKey contextKey = "user"

// BasicAuth returns middleware that requires HTTP basic credentials matching
// user and a bcrypt hash of the password. An empty user disables the check.
// Paths listed in open are served without credentials.
func BasicAuth(user, passwordHash string, open ...string) func(http.Handler) http.Handler {
	openSet := make(map[string]bool, len(open))
	for _, p := range open {
		openSet[p] = true
	}
	return func(next http.Handler) http.Handler {
		if user == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			u, p, ok := r.BasicAuth()
			if !ok || !CheckCredentials(user, passwordHash, u, p) {
				if ok {
					slog.Warn("auth_failed", "user", u, "path", r.URL.Path)
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="babis", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
		})
	}
}

// CheckCredentials compares a login against the configured user and bcrypt hash.
// PRE: passwordHash is a bcrypt hash
// POST: Returns true only when both the user and password match
func CheckCredentials(user, passwordHash, gotUser, gotPassword string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(gotUser)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(gotPassword)) == nil
	return userOK && passOK
}

// HashPassword returns a bcrypt hash suitable for admin_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

// UserFromContext returns the authenticated user name, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userContextKey).(string)
	return u, ok
}
