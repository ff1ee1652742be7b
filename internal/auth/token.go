package auth

import (
	"authcore/internal/config"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
)

// TokenManager issues and validates HMAC-signed JWTs. A single instance is
// built from config.Token and shared by every issuing and validating path.
type TokenManager struct {
	method *jwt.SigningMethodHMAC
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now for both issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

func NewTokenManager(cfg config.Token, opts ...TokenOption) (*TokenManager, error) {
	const op = "auth.NewTokenManager"

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported signing algorithm %q", op, cfg.Algorithm)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%s: empty signing secret", op)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%s: non-positive ttl %s", op, cfg.TTL)
	}

	m := &TokenManager{
		method: method,
		key:    []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token asserting subject, valid for the configured ttl.
func (m *TokenManager) Issue(subject string) (string, error) {
	const op = "auth.TokenManager.Issue"

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Validate checks the signature first and the expiry second, and returns the
// token subject. Tokens in any algorithm other than the configured one are
// rejected as ErrTokenBadSignature. Segments must be canonical base64url, so
// a signature whose unused trailing bits differ is rejected as malformed.
func (m *TokenManager) Validate(tokenStr string) (string, error) {
	const op = "auth.TokenManager.Validate"

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "", fmt.Errorf("%s: %w", op, ErrTokenBadSignature)
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
	default:
		return "", fmt.Errorf("%s: %w: %w", op, ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w: missing sub", op, ErrTokenMalformed)
	}

	return claims.Subject, nil
}
