package auth

import (
	"authcore/internal/config"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var (
	ErrUnknownHashFormat = errors.New("unknown password hash format")
	ErrPasswordTooLong   = bcrypt.ErrPasswordTooLong
)

// Hasher produces and checks salted password hashes. At most `workers`
// hash computations run at once; callers beyond that wait for a slot.
type Hasher struct {
	algorithm  string
	bcryptCost int
	argon2     *argon2id.Params
	sem        *semaphore.Weighted
	dummy      string
}

func NewHasher(cfg config.Hasher) (*Hasher, error) {
	const op = "auth.NewHasher"

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	h := &Hasher{
		algorithm:  cfg.Algorithm,
		bcryptCost: cfg.BcryptCost,
		argon2: &argon2id.Params{
			Memory:      cfg.Argon2MemoryKiB,
			Iterations:  cfg.Argon2Iterations,
			Parallelism: cfg.Argon2Parallelism,
			SaltLength:  16,
			KeyLength:   32,
		},
		sem: semaphore.NewWeighted(int64(workers)),
	}

	switch h.algorithm {
	case config.HasherArgon2id:
		if h.argon2.Memory == 0 || h.argon2.Iterations == 0 || h.argon2.Parallelism == 0 {
			return nil, fmt.Errorf("%s: argon2id params must be positive", op)
		}
	case config.HasherBcrypt:
		if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%s: bcrypt cost %d out of range", op, h.bcryptCost)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported algorithm %q", op, h.algorithm)
	}

	// Absent users are checked against this hash so that a miss costs the
	// same as a wrong password.
	var err error
	if h.dummy, err = h.hash(rand.Text()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return h, nil
}

// Hash returns a self-describing encoding of password with a fresh salt.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	const op = "auth.Hasher.Hash"

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	encoded, err := h.hash(password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return encoded, nil
}

// Verify reports whether password matches encoded. Both argon2id and bcrypt
// encodings are accepted regardless of the configured algorithm.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) (bool, error) {
	const op = "auth.Hasher.Verify"

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	ok, err := compare(password, encoded)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// VerifyDummy spends the cost of one verification and always reports false.
func (h *Hasher) VerifyDummy(ctx context.Context, password string) {
	_, _ = h.Verify(ctx, password, h.dummy)
}

func (h *Hasher) hash(password string) (string, error) {
	switch h.algorithm {
	case config.HasherBcrypt:
		bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		return string(bytes), err
	default:
		return argon2id.CreateHash(password, h.argon2)
	}
}

func compare(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return argon2id.ComparePasswordAndHash(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, nil
		default:
			return false, err
		}
	default:
		return false, ErrUnknownHashFormat
	}
}
