package auth

import (
	"authcore/internal/config"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHasherConfig(algorithm string) config.Hasher {
	return config.Hasher{
		Algorithm:         algorithm,
		BcryptCost:        4,
		Argon2MemoryKiB:   1024,
		Argon2Iterations:  1,
		Argon2Parallelism: 1,
		Workers:           2,
	}
}

func TestHasher_RoundTrip(t *testing.T) {
	for _, algorithm := range []string{config.HasherArgon2id, config.HasherBcrypt} {
		t.Run(algorithm, func(t *testing.T) {
			h, err := NewHasher(testHasherConfig(algorithm))
			require.NoError(t, err)
			ctx := context.Background()

			encoded, err := h.Hash(ctx, "Strong@123")
			require.NoError(t, err)
			assert.NotContains(t, encoded, "Strong@123")

			ok, err := h.Verify(ctx, "Strong@123", encoded)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify(ctx, "WrongPass1!", encoded)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)

	first, err := h.Hash(context.Background(), "Strong@123")
	require.NoError(t, err)
	second, err := h.Hash(context.Background(), "Strong@123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_VerifiesOtherAlgorithm(t *testing.T) {
	ctx := context.Background()
	bc, err := NewHasher(testHasherConfig(config.HasherBcrypt))
	require.NoError(t, err)
	argon, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)

	legacy, err := bc.Hash(ctx, "Strong@123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(legacy, "$2a$"))

	ok, err := argon.Verify(ctx, "Strong@123", legacy)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasher_UnknownFormat(t *testing.T) {
	h, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)

	ok, err := h.Verify(context.Background(), "Strong@123", "plaintext")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownHashFormat)
}

func TestHasher_BcryptRejectsLongPasswords(t *testing.T) {
	h, err := NewHasher(testHasherConfig(config.HasherBcrypt))
	require.NoError(t, err)

	_, err = h.Hash(context.Background(), strings.Repeat("A", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHasher_CancelledBeforeSlot(t *testing.T) {
	cfg := testHasherConfig(config.HasherArgon2id)
	cfg.Workers = 1
	h, err := NewHasher(cfg)
	require.NoError(t, err)

	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "Strong@123")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			encoded, err := h.Hash(context.Background(), "Strong@123")
			if err != nil {
				errs <- err
				return
			}
			if ok, err := h.Verify(context.Background(), "Strong@123", encoded); err != nil || !ok {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent hash failed: %v", err)
	}
}

func TestHasher_DummyHash(t *testing.T) {
	a, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)
	b, err := NewHasher(testHasherConfig(config.HasherArgon2id))
	require.NoError(t, err)

	assert.NotEqual(t, a.dummy, b.dummy)
	assert.True(t, strings.HasPrefix(a.dummy, "$argon2id$"), a.dummy)

	for _, pw := range []string{"", "Strong@123"} {
		ok, err := a.Verify(context.Background(), pw, a.dummy)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNewHasher_InvalidConfig(t *testing.T) {
	cfg := testHasherConfig("md5")
	_, err := NewHasher(cfg)
	assert.Error(t, err)

	cfg = testHasherConfig(config.HasherBcrypt)
	cfg.BcryptCost = 64
	_, err = NewHasher(cfg)
	assert.Error(t, err)

	cfg = testHasherConfig(config.HasherArgon2id)
	cfg.Argon2Iterations = 0
	_, err = NewHasher(cfg)
	assert.Error(t, err)
}
