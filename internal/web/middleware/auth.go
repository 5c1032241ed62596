package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/biogate/biogate/internal/auth"
)

type contextKey string

const (
	grantContextKey      contextKey = "grant"
	grantTokenContextKey contextKey = "grantToken"
)

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireGrant is middleware that requires a valid enrollment grant in
// the Authorization header. The grant and its raw token are added to
// the request context before the request body is read.
func RequireGrant(grants *auth.GrantIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"error": "enrollment grant required"}`, http.StatusUnauthorized)
				return
			}

			grant, err := grants.Validate(token)
			if err != nil {
				http.Error(w, `{"error": "invalid enrollment grant"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), grantContextKey, grant)
			ctx = context.WithValue(ctx, grantTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GrantFromContext retrieves the validated grant from the request context.
func GrantFromContext(ctx context.Context) *auth.Grant {
	grant, ok := ctx.Value(grantContextKey).(*auth.Grant)
	if !ok {
		return nil
	}
	return grant
}

// GrantTokenFromContext retrieves the raw grant token from the request context.
func GrantTokenFromContext(ctx context.Context) string {
	token, ok := ctx.Value(grantTokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}

// SetGrantInContext adds a grant and its token to the context.
// This is primarily for testing - use RequireGrant middleware in production.
func SetGrantInContext(ctx context.Context, grant *auth.Grant, token string) context.Context {
	ctx = context.WithValue(ctx, grantContextKey, grant)
	return context.WithValue(ctx, grantTokenContextKey, token)
}
