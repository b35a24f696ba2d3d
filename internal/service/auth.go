package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/domain"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// TokenIssuer is satisfied by *auth.TokenManager.
type TokenIssuer interface {
	Issue(subject string, role domain.Role) (string, error)
	DefaultTTL() time.Duration
}

// EventPublisher publishes user domain events. Failures never fail the
// operation that triggered them.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserRoleChanged(ctx context.Context, user *domain.User, previous domain.Role) error
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// IsActive defaults to true when nil.
	IsActive *bool
	// Role defaults to learner when empty.
	Role string
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthService implements registration and login.
type AuthService struct {
	directory  *Directory
	tokens     TokenIssuer
	events     EventPublisher
	allowAdmin bool
	logger     *slog.Logger
}

// NewAuthService creates a new auth service. allowAdminSignup lets callers
// register themselves as admin.
func NewAuthService(directory *Directory, tokens TokenIssuer, events EventPublisher, allowAdminSignup bool, logger *slog.Logger) *AuthService {
	return &AuthService{
		directory:  directory,
		tokens:     tokens,
		events:     events,
		allowAdmin: allowAdminSignup,
		logger:     logger,
	}
}

const errAdminSignupDisabled = "admin accounts cannot be self-registered; " +
	"they are created from ADMIN_EMAIL and ADMIN_PASSWORD at startup or promoted by an existing admin"

// Register creates a new account. A taken email is reported as a conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	role := domain.DefaultRole
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("role must be one of %s", rolesList()))
		}
		role = parsed
	}
	if role == domain.RoleAdmin && !s.allowAdmin {
		return nil, apperrors.Forbidden(errAdminSignupDisabled)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	user, err := s.directory.Create(ctx, NewUser{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		IsActive: active,
		Role:     role,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", role.String()),
	)
	return user, nil
}

// Login verifies credentials and issues an access token carrying the user's
// current role. Unknown emails, wrong passwords and inactive accounts share
// one message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AccessToken, error) {
	user, err := s.directory.Authenticate(ctx, email, password)
	if err == nil && !user.IsActive {
		err = ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			auth.Attempts.WithLabelValues("login", auth.OutcomeInvalid).Inc()
			s.logger.InfoContext(ctx, "login rejected")
			return nil, apperrors.Unauthorized("incorrect username or password")
		}
		auth.Attempts.WithLabelValues("login", auth.OutcomeError).Inc()
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		auth.Attempts.WithLabelValues("login", auth.OutcomeError).Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	auth.Attempts.WithLabelValues("login", auth.OutcomeSuccess).Inc()
	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))

	return &AccessToken{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.DefaultTTL().Seconds()),
	}, nil
}

// EnsureAdmin creates an active admin with the given credentials unless the
// email is already registered. An existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.directory.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	user, err := s.directory.Create(ctx, NewUser{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		IsActive: true,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		// Another replica won the race.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.InfoContext(ctx, "bootstrap admin created", slog.Int64("user_id", user.ID))
	return nil
}
