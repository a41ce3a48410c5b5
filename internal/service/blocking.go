package service

import (
	"context"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
)

// DefaultBlockingWait is the ceiling on a blocking call.
const DefaultBlockingWait = 5 * time.Second

// BlockingPosts wraps PostService for callers that cannot handle errors.
// Results are lossy: a timeout or failure yields an empty list or nil.
type BlockingPosts struct {
	posts *PostService
	wait  time.Duration
}

// NewBlockingPosts returns an adapter that waits at most wait, or
// DefaultBlockingWait when wait is zero.
func NewBlockingPosts(posts *PostService, wait time.Duration) *BlockingPosts {
	if wait <= 0 {
		wait = DefaultBlockingWait
	}
	return &BlockingPosts{posts: posts, wait: wait}
}

// ListAll returns the first feed page, or an empty list.
func (b *BlockingPosts) ListAll(ctx context.Context) []models.Post {
	return awaitOr(ctx, b.wait, "ListAll", []models.Post{}, func(ctx context.Context) ([]models.Post, error) {
		return b.posts.ListAll(ctx, DefaultPageLimit, 0)
	})
}

// ListForUser returns the user's posts, or an empty list.
func (b *BlockingPosts) ListForUser(ctx context.Context, userID string) []models.Post {
	return awaitOr(ctx, b.wait, "ListForUser", []models.Post{}, func(ctx context.Context) ([]models.Post, error) {
		return b.posts.ListForUser(ctx, userID)
	})
}

// GetByID returns the post, or nil.
func (b *BlockingPosts) GetByID(ctx context.Context, postID string) *models.Post {
	return awaitOr(ctx, b.wait, "GetByID", (*models.Post)(nil), func(ctx context.Context) (*models.Post, error) {
		return b.posts.GetByID(ctx, postID)
	})
}

// awaitOr runs fn and waits up to wait for it. On timeout fn's context is
// canceled and fallback is returned.
func awaitOr[T any](ctx context.Context, wait time.Duration, op string, fallback T, fn func(context.Context) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			observability.NewServiceLogger("posts.blocking").LogIgnored(ctx, op, r.err)
			return fallback
		}
		return r.value
	case <-ctx.Done():
		observability.NewServiceLogger("posts.blocking").LogIgnored(ctx, op, ctx.Err())
		return fallback
	}
}
