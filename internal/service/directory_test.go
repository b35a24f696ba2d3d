package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/domain"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
)

func TestDirectory_FindByEmail_Normalizes(t *testing.T) {
	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost), newTestLogger())

	u := &domain.User{ID: 1, Email: "a@x.com"}
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(u, nil)

	got, err := dir.FindByEmail(context.Background(), "  A@x.COM")
	require.NoError(t, err)
	assert.Same(t, u, got)
}

func TestDirectory_FindByEmail_NotFound(t *testing.T) {
	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost), newTestLogger())
	repo.On("GetByEmail", mock.Anything, "none@x.com").Return(nil, apperrors.ErrNotFound)

	_, err := dir.FindByEmail(context.Background(), "none@x.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDirectory_Create_RejectsUnknownRole(t *testing.T) {
	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost), newTestLogger())

	_, err := dir.Create(context.Background(), NewUser{Email: "a@x.com", Password: "pw", Role: "owner"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDirectory_Create_NoReadBeforeWrite(t *testing.T) {
	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost), newTestLogger())
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := dir.Create(context.Background(), NewUser{Email: "a@x.com", Password: "pw", Role: domain.RoleLearner})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestDirectory_Authenticate(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	digest, err := hasher.Hash("pw")
	require.NoError(t, err)

	repo := new(mockUserRepository)
	dir := NewDirectory(repo, hasher, newTestLogger())
	stored := &domain.User{ID: 1, Email: "a@x.com", PasswordHash: digest}
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(stored, nil)
	repo.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, apperrors.ErrNotFound)

	got, err := dir.Authenticate(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = dir.Authenticate(context.Background(), "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = dir.Authenticate(context.Background(), "ghost@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectory_Authenticate_UpgradesDigest(t *testing.T) {
	old, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)

	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost+1), newTestLogger())
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{ID: 5, Email: "a@x.com", PasswordHash: old}, nil)
	repo.On("UpdatePasswordHash", mock.Anything, int64(5), mock.AnythingOfType("string")).Return(nil)

	got, err := dir.Authenticate(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, old, got.PasswordHash)
	repo.AssertExpectations(t)
}

func TestDirectory_Authenticate_UpgradeFailureIsIgnored(t *testing.T) {
	old, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)

	repo := new(mockUserRepository)
	dir := NewDirectory(repo, auth.NewPasswordHasher(bcrypt.MinCost+1), newTestLogger())
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{ID: 5, Email: "a@x.com", PasswordHash: old}, nil)
	repo.On("UpdatePasswordHash", mock.Anything, int64(5), mock.Anything).Return(errors.New("read-only replica"))

	got, err := dir.Authenticate(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, old, got.PasswordHash)
}
