package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockingPosts_ReturnsResults(t *testing.T) {
	f := newPostFixture(t)
	owner, err := f.server.AddUser("owner", "owner@example.com", "secret1")
	require.NoError(t, err)
	post := f.server.AddPost(models.Post{UserID: owner.ID, RestaurantName: "R", RamenName: "N", Rating: 4})

	blocking := NewBlockingPosts(f.posts, 0)
	ctx := context.Background()

	assert.Len(t, blocking.ListAll(ctx), 1)
	assert.Len(t, blocking.ListForUser(ctx, owner.ID), 1)
	got := blocking.GetByID(ctx, post.ID)
	require.NotNil(t, got)
	assert.Equal(t, post.ID, got.ID)

	assert.Nil(t, blocking.GetByID(ctx, "missing"), "failures become nil")
}

func TestBlockingPosts_TimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	h := testutil.NewHarness(t, srv.URL)
	blocking := NewBlockingPosts(NewPostService(h.Client, h.Session, h.Bus, nil), 50*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	posts := blocking.ListAll(ctx)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Nil(t, blocking.GetByID(ctx, "p1"))
}
