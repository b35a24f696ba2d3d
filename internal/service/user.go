package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/repository"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
	"github.com/mmaazkhanhere/learnpath/pkg/pagination"
)

// UserService implements profile lookups and user administration.
type UserService struct {
	users  repository.UserRepository
	events EventPublisher
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, events EventPublisher, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		events: events,
		logger: logger,
	}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, params.Offset, params.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundUser(err, id)
	}
	return user, nil
}

// UpdateRole changes a user's role. Admins cannot change their own role.
// Tokens issued before the change keep the role they were issued with until
// they expire.
func (s *UserService) UpdateRole(ctx context.Context, actorID, id int64, role string) (*domain.User, error) {
	newRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("role must be one of %s", rolesList()))
	}
	if actorID == id {
		return nil, apperrors.Forbidden("admins cannot change their own role")
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundUser(err, id)
	}
	if current.Role == newRole {
		return current, nil
	}

	user, err := s.users.UpdateRole(ctx, id, newRole)
	if err != nil {
		return nil, notFoundUser(err, id)
	}

	if err := s.events.PublishUserRoleChanged(ctx, user, current.Role); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.role_changed event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.Int64("user_id", user.ID),
		slog.Int64("actor_id", actorID),
		slog.String("previous_role", current.Role.String()),
		slog.String("role", user.Role.String()),
	)
	return user, nil
}

// UpdateStatus activates or deactivates a user. Admins cannot deactivate
// themselves. A deactivated user is rejected on the next request even with
// an unexpired token.
func (s *UserService) UpdateStatus(ctx context.Context, actorID, id int64, active bool) (*domain.User, error) {
	if actorID == id && !active {
		return nil, apperrors.Forbidden("admins cannot deactivate themselves")
	}

	user, err := s.users.UpdateStatus(ctx, id, active)
	if err != nil {
		return nil, notFoundUser(err, id)
	}

	s.logger.InfoContext(ctx, "user status changed",
		slog.Int64("user_id", user.ID),
		slog.Int64("actor_id", actorID),
		slog.Bool("is_active", active),
	)
	return user, nil
}

// notFoundUser turns a bare ErrNotFound from the repository into a 404 that
// names the user.
func notFoundUser(err error, id int64) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("user", fmt.Sprint(id))
	}
	return err
}
