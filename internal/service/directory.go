package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/repository"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email and
// for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	NeedsRehash(digest string) bool
}

// NewUser holds the parameters for creating an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
	IsActive bool
	Role     domain.Role
}

// Directory looks up, creates and authenticates users.
type Directory struct {
	users  repository.UserRepository
	hasher PasswordHasher
	logger *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewDirectory creates a new user directory.
func NewDirectory(users repository.UserRepository, hasher PasswordHasher, logger *slog.Logger) *Directory {
	return &Directory{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// FindByEmail returns the user with the given email, or an error wrapping
// apperrors.ErrNotFound.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := d.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create hashes the password and inserts the user in a single statement. A
// taken email surfaces as apperrors.ErrAlreadyExists.
func (d *Directory) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	if !in.Role.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("role must be one of %s", rolesList()))
	}

	digest, err := d.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: digest,
		IsActive:     in.IsActive,
		Role:         in.Role,
	}
	if err := d.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose email and password match. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials. Digests from
// an older scheme or cost are upgraded on success.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := d.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Spend the same hashing work as a real comparison.
			d.hasher.Verify(password, d.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !d.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if d.hasher.NeedsRehash(user.PasswordHash) {
		d.rehash(ctx, user, password)
	}
	return user, nil
}

func (d *Directory) rehash(ctx context.Context, user *domain.User, password string) {
	digest, err := d.hasher.Hash(password)
	if err == nil {
		err = d.users.UpdatePasswordHash(ctx, user.ID, digest)
	}
	if err != nil {
		d.logger.WarnContext(ctx, "failed to upgrade password hash",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	user.PasswordHash = digest
	d.logger.InfoContext(ctx, "upgraded password hash", slog.Int64("user_id", user.ID))
}

func (d *Directory) dummy() string {
	d.dummyOnce.Do(func() {
		digest, err := d.hasher.Hash("learnpath-timing-equalizer")
		if err == nil {
			d.dummyDigest = digest
		}
	})
	return d.dummyDigest
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func rolesList() string {
	roles := domain.ValidRoles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
