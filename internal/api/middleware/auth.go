package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/QR-Madness/diagrammer-host/internal/auth"
)

type contextKey int

const claimsContextKey contextKey = iota

// RequireAuth validates the request's Bearer token and stores its
// claims in the request context, rejecting the request with 401
// otherwise. tokens may be nil when the server has no login surface
// configured, in which case every request is rejected.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				writeUnauthorized(w, "Server not configured for login")
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin wraps RequireAuth's result, additionally rejecting
// non-admin callers with 403.
func RequireAdmin(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	requireAuth := RequireAuth(tokens)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok || claims.Role != auth.RoleAdmin {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"admin role required"}}`))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// ClaimsFrom retrieves the token claims RequireAuth stored on ctx.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
