package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/auth/service"
	"github.com/todoboard/backend/libs/middlewares"
)

type contextKey string

const claimsKey contextKey = "claims"

// AccessTokenVerifier verifies bearer access tokens
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*service.Claims, error)
}

// Authenticate verifies the bearer token once per request and stores the claims in the context.
// Requests without an Authorization header pass through anonymous; a malformed header or a
// token that fails verification is rejected with 401.
func Authenticate(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Expected format: "Bearer <token>"
			scheme, token, found := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				middlewares.WriteError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := verifier.VerifyAccessToken(token)
			if err != nil {
				middlewares.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying the verified claims
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the verified claims from context
func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

// RequireAuth returns the caller's claims or an Unauthorized error
func RequireAuth(ctx context.Context) (*service.Claims, error) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	return claims, nil
}

// RequireAdmin returns the caller's claims if the caller is an admin.
// Anonymous callers get Unauthorized, authenticated non-admins get Forbidden.
func RequireAdmin(ctx context.Context) (*service.Claims, error) {
	claims, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	return claims, nil
}
