package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises the behaviour every in-process medium shares.
func runStorageContract(t *testing.T, open func(t *testing.T) Storage) {
	t.Run("create and read back", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		id, err := st.CreateUser(ctx, "alice", "hash-1")
		require.NoError(t, err)
		assert.Positive(t, id)

		cred, err := st.GetCredentialsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, cred.UserID)
		assert.Equal(t, "hash-1", cred.PasswordHash)

		user, err := st.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate username keeps first record", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		_, err := st.CreateUser(ctx, "alice", "hash-1")
		require.NoError(t, err)

		_, err = st.CreateUser(ctx, "alice", "hash-2")
		assert.ErrorIs(t, err, ErrUserExists)

		cred, err := st.GetCredentialsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "hash-1", cred.PasswordHash)

		count, err := st.CountUsers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		_, err := st.CreateUser(ctx, "alice", "hash-1")
		require.NoError(t, err)
		_, err = st.CreateUser(ctx, "Alice", "hash-2")
		require.NoError(t, err)

		count, err := st.CountUsers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("ids are monotonic", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		var prev int64
		for i := 0; i < 5; i++ {
			id, err := st.CreateUser(ctx, fmt.Sprintf("user-%d", i), "hash")
			require.NoError(t, err)
			assert.Greater(t, id, prev)
			prev = id
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		st := open(t)

		_, err := st.GetCredentialsByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = st.GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("concurrent registrations of one username", func(t *testing.T) {
		st := open(t)
		ctx := context.Background()

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			existed   int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := st.CreateUser(ctx, "alice", fmt.Sprintf("hash-%d", i))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case assert.ErrorIs(t, err, ErrUserExists):
					existed++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, n-1, existed)

		count, err := st.CountUsers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("ping", func(t *testing.T) {
		st := open(t)
		assert.NoError(t, st.Ping(context.Background()))
	})
}
