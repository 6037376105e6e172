// Package middleware contains HTTP middleware for the agency site backend.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/loiredigital/atelier/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const claimsContextKey contextKey = "portal_claims"

// GetClaims retrieves the authenticated portal session from the request
// context. Returns nil when the request is unauthenticated.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func setClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// AuthMiddleware authenticates client portal requests from the JWT cookie.
type AuthMiddleware struct {
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(tokens *auth.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// WithClaims decodes the session cookie if present and stores the claims in
// the request context. The request continues either way.
func (m *AuthMiddleware) WithClaims(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.tokens.FromRequest(r); claims != nil {
			r = r.WithContext(setClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireClient rejects unauthenticated requests with 401 JSON.
// Must run after WithClaims.
func (m *AuthMiddleware) RequireClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "Non authentifié",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware guards internal endpoints (mockup uploads) with a
// static bearer token. Disabled entirely when no token is configured.
type AdminAuthMiddleware struct {
	token  string
	logger *slog.Logger
}

// NewAdminAuthMiddleware creates a new admin auth middleware.
func NewAdminAuthMiddleware(token string, logger *slog.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{token: token, logger: logger}
}

// Require rejects requests without the configured bearer token. When no
// token is configured the admin surface is closed, not open.
func (m *AdminAuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" || r.Header.Get("Authorization") != "Bearer "+m.token {
			m.logger.Warn("admin auth rejected", "path", r.URL.Path, "ip", GetClientIP(r))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "Non authentifié",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stack composes middlewares so the first argument is the outermost wrapper.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
