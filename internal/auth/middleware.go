package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const userEmailKey contextKey = "user_email"

// UserEmailFromContext returns the authenticated user's email, if any.
func UserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok && email != ""
}

// WithUserEmail returns a context carrying the authenticated email.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// RequireAPIKey authenticates /api/ routes and puts the owning user's email
// on the request context. Requests carry either a Bearer API key (devices,
// CLI) or the session cookie a browser gets from clicking a magic link.
// Auth endpoints (login, verify) are public. Only failed key validations
// are charged against the per-IP limiter, so brute-force scanning runs out
// of budget while legitimate traffic never does.
// Returns 401 for missing/invalid credentials, 429 for rate-limited clients.
func RequireAPIKey(apiKeys *APIKeyStore, sessions *SessionStore, limiter *LimiterStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// No key presented; fall back to the browser session.
			if email, err := sessions.Validate(r); err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserEmail(r.Context(), email)))
				return
			}
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		key := strings.TrimPrefix(authHeader, "Bearer ")

		email, err := apiKeys.Validate(key)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if email == "" {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserEmail(r.Context(), email)))
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/api/auth/login", "/api/auth/verify", "/health":
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
