package service

import (
	"authcore/internal/auth"
	"authcore/internal/metrics"
	"authcore/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Credentials registers identities and checks passwords against them.
type Credentials struct {
	storage storage.Storage
	hasher  *auth.Hasher
	metrics *metrics.Metrics
}

func NewCredentials(st storage.Storage, hasher *auth.Hasher, m *metrics.Metrics) *Credentials {
	return &Credentials{
		storage: st,
		hasher:  hasher,
		metrics: m,
	}
}

// Register stores a new identity and returns its id. Uniqueness is decided by
// the storage insert; the lookup beforehand only skips hashing for names that
// are already taken.
func (c *Credentials) Register(ctx context.Context, username, password string) (int64, error) {
	const op = "service.Credentials.Register"

	if !validUsername(username) {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidUsername)
	}
	if !auth.IsValidPassword(password) {
		return 0, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	_, err := c.storage.GetCredentialsByUsername(ctx, username)
	switch {
	case err == nil:
		return 0, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	case !errors.Is(err, storage.ErrUserNotFound):
		return 0, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	start := time.Now()
	passwordHash, err := c.hasher.Hash(ctx, password)
	c.metrics.ObserveHash(start)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return 0, fmt.Errorf("%s: %w: %w", op, ErrWeakPassword, err)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := c.storage.CreateUser(ctx, username, passwordHash)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserExists):
			return 0, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		case errors.Is(err, storage.ErrInvalidField):
			return 0, fmt.Errorf("%s: %w: %w", op, ErrInvalidUsername, err)
		}
		return 0, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	return id, nil
}

// validUsername rejects blank names and names with control characters such
// as CR or LF, which no medium can be trusted to store and return verbatim.
func validUsername(username string) bool {
	return strings.TrimSpace(username) != "" && !strings.ContainsFunc(username, unicode.IsControl)
}

// Verify reports whether password belongs to username. A missing user yields
// storage.ErrUserNotFound, a mismatch ErrInvalidCredentials; both take about
// as long as a successful check.
func (c *Credentials) Verify(ctx context.Context, username, password string) (bool, error) {
	const op = "service.Credentials.Verify"

	cred, err := c.storage.GetCredentialsByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			start := time.Now()
			c.hasher.VerifyDummy(ctx, password)
			c.metrics.ObserveHash(start)
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	start := time.Now()
	ok, err := c.hasher.Verify(ctx, password, cred.PasswordHash)
	c.metrics.ObserveHash(start)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return true, nil
}
