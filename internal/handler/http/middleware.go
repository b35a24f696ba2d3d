package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/pkg/httputil"
	"github.com/mmaazkhanhere/learnpath/pkg/middleware"
)

// Authorizer is satisfied by *auth.Guard.
type Authorizer interface {
	Authorize(ctx context.Context, token string, level auth.Level) (*auth.Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// errNoPrincipal means a handler that needs a caller was mounted without
// Require.
var errNoPrincipal = errors.New("no principal in request context")

// Require rejects requests whose bearer token does not resolve to an active
// user at the given level. The resolved principal is stored in the request
// context.
func Require(guard Authorizer, level auth.Level, logger *slog.Logger) func(http.Handler) http.Handler {
	authn := func(ctx context.Context, token string) (context.Context, error) {
		p, err := guard.Authorize(ctx, token, level)
		if err != nil {
			return nil, err
		}
		ctx = context.WithValue(ctx, principalKey, p)
		return middleware.WithIdentity(ctx, p.User.IDString(), p.Role.String()), nil
	}
	writeErr := func(w http.ResponseWriter, r *http.Request, err error) {
		httputil.WriteError(w, r, err, logger)
	}
	return middleware.Bearer(authn, writeErr)
}

// principalFromContext returns the caller resolved by Require.
func principalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok && p != nil
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return requireContentType("application/json", next)
}

// ContentTypeForm enforces that requests with a body are URL-encoded forms.
func ContentTypeForm(next http.Handler) http.Handler {
	return requireContentType("application/x-www-form-urlencoded", next)
}

func requireContentType(want string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, want) {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be " + want,
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
