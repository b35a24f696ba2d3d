package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hs256"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager(TokenConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		DefaultTTL: 15 * time.Minute,
		Issuer:     "learnpath",
	}, discardLogger())
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestTokenManager()

	for _, role := range domain.ValidRoles() {
		token, err := m.Issue("a@x.com", role)
		require.NoError(t, err)

		id, err := m.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", id.Subject)
		assert.Equal(t, role, id.Role)
	}
}

func TestTokenManager_WithoutRole(t *testing.T) {
	m := newTestTokenManager()

	token, err := m.Issue("legacy@x.com", "")
	require.NoError(t, err)

	id, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "legacy@x.com", id.Subject)
	assert.Empty(t, id.Role)
}

func TestTokenManager_Claims(t *testing.T) {
	m := newTestTokenManager()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	token, err := m.Issue("a@x.com", domain.RoleContributor)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, "contributor", claims.Role)
	assert.Equal(t, "learnpath", claims.Issuer)
	assert.Equal(t, fixed, claims.IssuedAt.Time.UTC())
	assert.Equal(t, fixed.Add(15*time.Minute), claims.ExpiresAt.Time.UTC())
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	m := NewTokenManager(TokenConfig{Secret: testSecret, Algorithm: "HS256"}, nil)
	assert.Equal(t, DefaultTokenTTL, m.DefaultTTL())
	assert.Equal(t, 15*time.Minute, DefaultTokenTTL)
}

func TestTokenManager_NonPositiveTTLIsExpired(t *testing.T) {
	m := newTestTokenManager()

	for _, ttl := range []time.Duration{0, -time.Second, -time.Hour} {
		token, err := m.IssueWithTTL("a@x.com", domain.RoleLearner, ttl)
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "ttl %s", ttl)
	}
}

func TestTokenManager_ExpiresAfterTTL(t *testing.T) {
	m := newTestTokenManager()
	start := time.Now()
	m.now = func() time.Time { return start }

	token, err := m.IssueWithTTL("a@x.com", domain.RoleLearner, 5*time.Minute)
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(4 * time.Minute) }
	_, err = m.Validate(token)
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(6 * time.Minute) }
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_DifferentSecret(t *testing.T) {
	issuer := newTestTokenManager()
	other := NewTokenManager(TokenConfig{Secret: "some-other-secret", Algorithm: "HS256"}, discardLogger())

	for _, role := range []domain.Role{"", domain.RoleLearner, domain.RoleAdmin} {
		token, err := issuer.Issue("a@x.com", role)
		require.NoError(t, err)

		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenManager_RejectsMalformedTokens(t *testing.T) {
	m := newTestTokenManager()
	future := time.Now().Add(time.Hour).Unix()

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a@x.com", "exp": future}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":         "not.a.jwt",
		"empty":           "",
		"alg none":        noneToken,
		"other hmac alg":  signRaw(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "a@x.com", "exp": future}, testSecret),
		"missing exp":     signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@x.com"}, testSecret),
		"missing sub":     signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"exp": future}, testSecret),
		"unknown role":    signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@x.com", "exp": future, "role": "superuser"}, testSecret),
		"role wrong case": signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@x.com", "exp": future, "role": "Admin"}, testSecret),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TokenConfig
		setting string
	}{
		{"missing secret", TokenConfig{Algorithm: "HS256"}, "secret"},
		{"missing algorithm", TokenConfig{Secret: testSecret}, "algorithm"},
		{"asymmetric algorithm", TokenConfig{Secret: testSecret, Algorithm: "RS256"}, "algorithm"},
		{"unknown algorithm", TokenConfig{Secret: testSecret, Algorithm: "HS1024"}, "algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTokenManager(tt.cfg, discardLogger())

			_, err := m.Issue("a@x.com", domain.RoleLearner)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "issue: got %v", err)
			assert.Equal(t, tt.setting, cfgErr.Setting)
			assert.ErrorIs(t, err, ErrNotConfigured)

			_, err = m.Validate("anything")
			assert.ErrorIs(t, err, ErrNotConfigured)
			assert.NotErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_IssueRejectsBadInput(t *testing.T) {
	m := newTestTokenManager()

	_, err := m.Issue("", domain.RoleLearner)
	assert.Error(t, err)

	_, err = m.Issue("a@x.com", domain.Role("owner"))
	assert.Error(t, err)
}

func TestTokenManager_HS384(t *testing.T) {
	m := NewTokenManager(TokenConfig{Secret: testSecret, Algorithm: "HS384"}, discardLogger())

	token, err := m.Issue("a@x.com", domain.RoleAdmin)
	require.NoError(t, err)

	id, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, id.Role)

	_, err = newTestTokenManager().Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
