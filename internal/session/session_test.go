package session

import (
	"context"
	"errors"
	"testing"

	"slurpsocial/internal/models"
	"slurpsocial/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*store.MemoryStore
	setErr error
}

func (f *failingStore) SetMany(ctx context.Context, values map[string]string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.SetMany(ctx, values)
}

func testUser() *models.User {
	return &models.User{ID: "u1", Username: "ramenfan", Email: "a@b.com", DisplayName: "Ramen Fan", RamenCount: 3}
}

func TestSession_EstablishAndClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(store.NewMemoryStore())
	assert.False(t, s.IsLoggedIn())
	assert.Nil(t, s.CurrentUser())

	require.NoError(t, s.Establish(ctx, "tok", testUser()))
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "ramenfan", s.CurrentUser().Username)

	require.NoError(t, s.Clear(ctx))
	assert.False(t, s.IsLoggedIn())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.CurrentUser())
}

func TestSession_CurrentUserIsCopy(t *testing.T) {
	t.Parallel()
	s := New(store.NewMemoryStore())
	require.NoError(t, s.Establish(context.Background(), "tok", testUser()))

	u := s.CurrentUser()
	u.Username = "mutated"
	assert.Equal(t, "ramenfan", s.CurrentUser().Username)
}

func TestSession_EstablishRejectsHalfState(t *testing.T) {
	t.Parallel()
	s := New(store.NewMemoryStore())
	assert.Error(t, s.Establish(context.Background(), "", testUser()))
	assert.Error(t, s.Establish(context.Background(), "tok", nil))
	assert.False(t, s.IsLoggedIn())
}

func TestSession_PersistFailureLeavesLoggedOut(t *testing.T) {
	t.Parallel()
	s := New(&failingStore{MemoryStore: store.NewMemoryStore(), setErr: errors.New("disk full")})
	err := s.Establish(context.Background(), "tok", testUser())
	assert.Error(t, err)
	assert.False(t, s.IsLoggedIn())
	assert.Empty(t, s.Token())
}

func TestSession_RestoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backing := store.NewMemoryStore()
	require.NoError(t, New(backing).Establish(ctx, "tok", testUser()))

	restored := New(backing)
	require.NoError(t, restored.Restore(ctx))
	assert.True(t, restored.IsLoggedIn())
	assert.Equal(t, "tok", restored.Token())
	assert.Equal(t, testUser().Email, restored.CurrentUser().Email)
	assert.Equal(t, 3, restored.CurrentUser().RamenCount)
}

func TestSession_RestoreHalfStateClearsBoth(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"Token only", map[string]string{TokenKey: "tok"}},
		{"User only", map[string]string{UserKey: `{"id":"u1","username":"x","email":"a@b.com","displayName":"x","ramenCount":0}`}},
		{"Unreadable user", map[string]string{TokenKey: "tok", UserKey: "{not json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backing := store.NewMemoryStore()
			require.NoError(t, backing.SetMany(ctx, tt.values))

			s := New(backing)
			require.NoError(t, s.Restore(ctx))
			assert.False(t, s.IsLoggedIn())

			_, err := backing.Get(ctx, TokenKey)
			assert.ErrorIs(t, err, store.ErrNotFound)
			_, err = backing.Get(ctx, UserKey)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestSession_UpdateUserRequiresLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(store.NewMemoryStore())
	assert.ErrorIs(t, s.UpdateUser(ctx, testUser()), models.ErrNotLoggedIn)

	require.NoError(t, s.Establish(ctx, "tok", testUser()))
	updated := testUser()
	updated.DisplayName = "Noodle Lord"
	require.NoError(t, s.UpdateUser(ctx, updated))
	assert.Equal(t, "Noodle Lord", s.CurrentUser().DisplayName)
	assert.Equal(t, "tok", s.Token())
}

func TestSession_UpdateUserRejectsOtherUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(store.NewMemoryStore())
	require.NoError(t, s.Establish(ctx, "tok", testUser()))

	stale := testUser()
	stale.ID = "u2"
	assert.ErrorIs(t, s.UpdateUser(ctx, stale), ErrUserChanged)
	assert.Equal(t, "u1", s.CurrentUser().ID)
}
