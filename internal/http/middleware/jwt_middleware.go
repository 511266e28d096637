package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/evacdesk/rollcall/internal/http/response"
	"github.com/evacdesk/rollcall/internal/platform/auth"
)

type claimsKey struct{}

// RequireAdmin guards the upload/reset/export surface. Expects a Bearer token
// minted by the login handler.
func RequireAdmin(tokens *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				response.Unauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}
			if claims.Role != "admin" {
				response.Forbidden(w, "admin access required")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaims returns the verified claims, or nil outside RequireAdmin.
func AdminClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*auth.Claims)
	return claims
}
