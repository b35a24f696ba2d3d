package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
	"github.com/mmaazkhanhere/learnpath/pkg/logger"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

// BearerAuthenticator resolves a raw bearer token. On success it returns the
// request context enriched with whatever the caller needs downstream,
// typically via WithIdentity.
type BearerAuthenticator func(ctx context.Context, token string) (context.Context, error)

// ErrorWriter renders an error response. httputil.WriteError fits.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Bearer extracts the token from the Authorization header and hands it to
// authn. A missing or malformed header is reported as Unauthorized without
// calling authn. Errors from authn are passed to writeErr unchanged.
func Bearer(authn BearerAuthenticator, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeErr(w, r, apperrors.Unauthorized("not authenticated"))
				return
			}

			ctx, err := authn(r.Context(), token)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			if id := UserIDFromContext(ctx); id != "" {
				ctx = logger.WithUserID(ctx, id)
				ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", id)))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken parses an Authorization header value of the form
// "Bearer <token>". The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// WithIdentity stores the authenticated user's id and effective role.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the user role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
