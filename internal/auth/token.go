package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmaazkhanhere/learnpath/internal/domain"
)

// DefaultTokenTTL applies when TokenConfig.DefaultTTL is zero.
const DefaultTokenTTL = 15 * time.Minute

var (
	// ErrNotConfigured is wrapped by every ConfigError.
	ErrNotConfigured = errors.New("token signing is not configured")

	// ErrInvalidToken covers every reason a presented token is rejected.
	ErrInvalidToken = errors.New("invalid token")
)

// ConfigError reports a missing or unusable signing setting. It is a server
// fault and is never caused by the token itself.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("token configuration: %s %s", e.Setting, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrNotConfigured
}

// TokenConfig is built once from configuration and never modified.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	DefaultTTL time.Duration
	Issuer     string
}

// Identity is what a valid token asserts. Role is empty for tokens issued
// without one.
type Identity struct {
	Subject string
	Role    domain.Role
}

// Claims is the access token payload.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HMAC-signed access tokens.
type TokenManager struct {
	cfg    TokenConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewTokenManager(cfg TokenConfig, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{cfg: cfg, now: time.Now, logger: logger}
}

// DefaultTTL returns the lifetime Issue uses.
func (m *TokenManager) DefaultTTL() time.Duration {
	if m.cfg.DefaultTTL > 0 {
		return m.cfg.DefaultTTL
	}
	return DefaultTokenTTL
}

// Issue signs a token for subject with the default lifetime. role may be
// empty.
func (m *TokenManager) Issue(subject string, role domain.Role) (string, error) {
	return m.IssueWithTTL(subject, role, m.DefaultTTL())
}

// IssueWithTTL signs a token that expires ttl from now. A ttl of zero or less
// yields a token that is already expired.
func (m *TokenManager) IssueWithTTL(subject string, role domain.Role, ttl time.Duration) (string, error) {
	method, err := m.signingMethod()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("issue token: subject is required")
	}
	if role != "" && !role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", role)
	}

	now := m.now().UTC()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm and expiry and returns the asserted
// identity. Every token problem is reported as ErrInvalidToken; the cause is
// only logged at debug level. A missing secret or algorithm is a
// *ConfigError instead.
func (m *TokenManager) Validate(tokenString string) (*Identity, error) {
	if _, err := m.signingMethod(); err != nil {
		return nil, err
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(m.cfg.Secret), nil },
		jwt.WithValidMethods([]string{m.cfg.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, m.reject("parse", err)
	}

	if claims.Subject == "" {
		return nil, m.reject("claims", errors.New("missing sub"))
	}

	id := &Identity{Subject: claims.Subject}
	if claims.Role != "" {
		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			return nil, m.reject("claims", err)
		}
		id.Role = role
	}
	return id, nil
}

func (m *TokenManager) reject(stage string, cause error) error {
	m.logger.Debug("token rejected",
		slog.String("stage", stage),
		slog.String("reason", cause.Error()),
	)
	return ErrInvalidToken
}

func (m *TokenManager) signingMethod() (jwt.SigningMethod, error) {
	if m.cfg.Secret == "" {
		return nil, &ConfigError{Setting: "secret", Reason: "is not set"}
	}
	if m.cfg.Algorithm == "" {
		return nil, &ConfigError{Setting: "algorithm", Reason: "is not set"}
	}
	method, ok := jwt.GetSigningMethod(m.cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, &ConfigError{Setting: "algorithm", Reason: fmt.Sprintf("%q is not an HMAC method", m.cfg.Algorithm)}
	}
	return method, nil
}
