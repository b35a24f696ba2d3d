package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// Level is the access an endpoint requires.
type Level int

const (
	LevelAuthenticated Level = iota
	LevelContributor
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelAuthenticated:
		return "authenticated"
	case LevelContributor:
		return "contributor"
	case LevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// TokenValidator is satisfied by *TokenManager.
type TokenValidator interface {
	Validate(token string) (*Identity, error)
}

// UserFinder looks up accounts by email. It returns apperrors.ErrNotFound
// when there is none.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Principal is the caller resolved for one request.
type Principal struct {
	User *domain.User
	// Role is the role access was decided on: the token's snapshot when it
	// carries one, otherwise the stored role.
	Role domain.Role
}

// Guard resolves bearer tokens to active users and checks their role.
// Nothing is cached between calls.
type Guard struct {
	tokens TokenValidator
	users  UserFinder
	logger *slog.Logger
}

func NewGuard(tokens TokenValidator, users UserFinder, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, logger: logger}
}

// Authorize resolves token and checks it against level.
//
// Invalid tokens and unknown or inactive users yield an Unauthorized
// AppError. Insufficient or unrecognized roles yield Forbidden. Signing
// configuration problems and store failures are returned wrapped so they
// render as internal errors.
func (g *Guard) Authorize(ctx context.Context, token string, level Level) (*Principal, error) {
	p, err := g.authorize(ctx, token, level)
	Attempts.WithLabelValues("authorize", outcomeOf(err)).Inc()
	return p, err
}

func (g *Guard) authorize(ctx context.Context, token string, level Level) (*Principal, error) {
	id, err := g.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, apperrors.Unauthorized("could not validate credentials")
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}

	user, err := g.users.FindByEmail(ctx, id.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("could not validate credentials")
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if !user.IsActive {
		g.logger.InfoContext(ctx, "inactive user presented a token",
			slog.Int64("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized("could not validate credentials")
	}

	role := id.Role
	if role == "" {
		role = user.Role
	}

	if err := permits(role, level); err != nil {
		g.logger.InfoContext(ctx, "access denied",
			slog.Int64("user_id", user.ID),
			slog.String("role", string(role)),
			slog.String("required", level.String()),
		)
		return nil, err
	}

	return &Principal{User: user, Role: role}, nil
}

// permits decides whether role satisfies level. Unknown roles never do.
func permits(role domain.Role, level Level) error {
	if !role.Valid() {
		return apperrors.Forbidden("unrecognized role")
	}

	switch level {
	case LevelAuthenticated:
		return nil
	case LevelContributor:
		if role == domain.RoleContributor || role == domain.RoleAdmin {
			return nil
		}
		return apperrors.Forbidden("contributor or admin role required")
	case LevelAdmin:
		if role == domain.RoleAdmin {
			return nil
		}
		return apperrors.Forbidden("admin role required")
	default:
		return apperrors.Forbidden("unknown access level")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apperrors.ErrUnauthorized):
		return OutcomeUnauthenticated
	case errors.Is(err, apperrors.ErrForbidden):
		return OutcomeForbidden
	default:
		return OutcomeError
	}
}
