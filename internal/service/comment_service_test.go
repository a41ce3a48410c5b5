package service

import (
	"context"
	"testing"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Lifecycle(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	owner, err := f.server.AddUser("owner", "owner@example.com", "secret1")
	require.NoError(t, err)
	post := f.server.AddPost(models.Post{UserID: owner.ID, RestaurantName: "R", RamenName: "N", Rating: 4})

	_, err = f.comments.Create(ctx, post.ID, "hello")
	assert.ErrorIs(t, err, models.ErrNotLoggedIn)

	f.login(t, "commenter")
	_, err = f.comments.Create(ctx, post.ID, "   ")
	assert.True(t, models.IsValidationError(err))

	created, err := f.comments.Create(ctx, post.ID, "  rich broth  ")
	require.NoError(t, err)
	assert.Equal(t, "rich broth", created.Content)
	require.NotNil(t, created.Username)
	assert.Equal(t, "commenter", *created.Username)

	list, err := f.comments.List(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.comments.Delete(ctx, &post, created))
	list, err = f.comments.List(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommentService_DeleteChecksLocally(t *testing.T) {
	hits, baseURL := countingServer(t)
	f := newPostFixture(t)
	ctx := context.Background()
	f.login(t, "bystander")

	// Same session, but any request would land on the counting server.
	client := apiclient.NewClient(apiclient.Options{BaseURL: baseURL}, f.harness.Session)
	offline := NewCommentService(client, f.harness.Session)

	post := &models.Post{ID: "p1", UserID: "someone-else"}
	comment := &models.Comment{ID: "c1", PostID: "p1", UserID: "another-user"}
	err := offline.Delete(ctx, post, comment)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Zero(t, hits.Load())
}

func TestCommentService_DeleteOwnCommentWithoutPost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	owner, err := f.server.AddUser("host", "host@example.com", "secret1")
	require.NoError(t, err)
	post := f.server.AddPost(models.Post{UserID: owner.ID, RestaurantName: "R", RamenName: "N", Rating: 3})

	f.login(t, "guest")
	created, err := f.comments.Create(ctx, post.ID, "extra chashu please")
	require.NoError(t, err)
	require.Equal(t, post.ID, created.PostID)

	require.NoError(t, f.comments.Delete(ctx, nil, created))
	list, err := f.comments.List(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommentService_DeleteRejectsIncompleteInput(t *testing.T) {
	hits, baseURL := countingServer(t)
	f := newPostFixture(t)
	ctx := context.Background()
	me := f.login(t, "tidy")

	client := apiclient.NewClient(apiclient.Options{BaseURL: baseURL}, f.harness.Session)
	offline := NewCommentService(client, f.harness.Session)

	err := offline.Delete(ctx, &models.Post{ID: "p1"}, nil)
	assert.True(t, models.IsValidationError(err))

	// Without a post, the comment must say where it lives.
	err = offline.Delete(ctx, nil, &models.Comment{ID: "c1", UserID: me.ID})
	assert.True(t, models.IsValidationError(err))

	// Someone else's comment with no post to prove ownership.
	err = offline.Delete(ctx, nil, &models.Comment{ID: "c1", PostID: "p1", UserID: "other"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Zero(t, hits.Load())
}
