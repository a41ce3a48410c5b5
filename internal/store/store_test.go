package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlStore, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
		"redis":  NewRedisStore(client, ""),
	}
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "authToken")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SetMany(ctx, map[string]string{
				"authToken":   "tok-1",
				"currentUser": `{"id":"u1"}`,
			}))
			got, err := s.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.Equal(t, "tok-1", got)

			require.NoError(t, s.SetMany(ctx, map[string]string{"authToken": "tok-2"}))
			got, err = s.Get(ctx, "authToken")
			require.NoError(t, err)
			assert.Equal(t, "tok-2", got, "existing keys are overwritten")

			require.NoError(t, s.Delete(ctx, "authToken", "currentUser", "never-set"))
			_, err = s.Get(ctx, "currentUser")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SetMany(ctx, nil))
			require.NoError(t, s.Delete(ctx))
		})
	}
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SetMany(ctx, map[string]string{"authToken": "persisted"}))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestRedisStore_Prefix(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "")
	require.NoError(t, s.SetMany(context.Background(), map[string]string{"authToken": "t"}))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"authToken"))
}
