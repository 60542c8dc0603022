package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cybershield/cybershield/internal/server"
)

type authUserKey struct{}

// UserFromContext returns the authenticated user's claims, or nil.
func UserFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(authUserKey{}).(*Claims); ok {
		return c
	}
	return nil
}

// ContextWithUser returns a context carrying the given claims. Handlers
// normally receive this via the middleware; tests use it directly.
func ContextWithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, authUserKey{}, claims)
}

// publicPaths are API endpoints reachable without a token.
var publicPaths = map[string]bool{
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
	"/api/v1/auth/refresh":  true,
	"/api/v1/health":        true,
}

// AuthMiddleware enforces Bearer token authentication on /api/ routes.
// Non-API paths and the websocket endpoint (which authenticates via query
// parameter) pass through untouched.
func AuthMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/api/v1/ws") ||
				publicPaths[path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				server.Unauthorized(w, "missing bearer token", path)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				server.Unauthorized(w, "invalid or expired token", path)
				return
			}

			ctx := context.WithValue(r.Context(), authUserKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
