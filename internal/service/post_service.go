package service

import (
	"context"
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/events"
	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
	"slurpsocial/internal/session"
	"slurpsocial/internal/validation"
)

// List and search defaults.
const (
	DefaultPageLimit    = 20
	DefaultNearbyRadius = 5000.0
)

// UserRefresher reloads the signed-in user after a change the server counts,
// without holding up the caller.
type UserRefresher interface {
	RefreshInBackground(ctx context.Context)
}

// PostService reads and writes ramen reviews.
type PostService struct {
	client  *apiclient.Client
	session *session.Session
	bus     *events.Bus
	users   UserRefresher
	logger  *observability.ServiceLogger
}

func NewPostService(client *apiclient.Client, sess *session.Session, bus *events.Bus, users UserRefresher) *PostService {
	return &PostService{
		client:  client,
		session: sess,
		bus:     bus,
		users:   users,
		logger:  observability.NewServiceLogger("posts"),
	}
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

func (s *PostService) requireLogin() error {
	if !s.session.IsLoggedIn() {
		return models.ErrNotLoggedIn
	}
	return nil
}

// Create publishes a new review. image, when non-empty, is sent inline as
// base64. The author's post count is refreshed from the server in the
// background afterwards.
func (s *PostService) Create(ctx context.Context, post *models.Post, image []byte) (*models.Post, error) {
	if err := validation.ValidatePost(post); err != nil {
		return nil, err
	}
	if err := s.requireLogin(); err != nil {
		return nil, err
	}

	in := models.NewPostInput(post)
	if len(image) > 0 {
		encoded := base64.StdEncoding.EncodeToString(image)
		in.ImageData = &encoded
	}

	env, err := apiclient.Do[models.Post](ctx, s.client, apiclient.MethodPost, "/posts", in, true)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, models.ErrSaveFailed
	}

	created := env.Data
	s.bus.Publish(ctx, events.Event{Kind: events.PostsChanged, PostID: created.ID, UserID: created.UserID})
	if s.users != nil {
		s.users.RefreshInBackground(ctx)
	}
	s.logger.LogCall(ctx, "Create", map[string]interface{}{"post_id": created.ID})
	return created, nil
}

// Update replaces the editable fields of post. Image bytes are never resent.
func (s *PostService) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := validation.ValidatePost(post); err != nil {
		return nil, err
	}
	if strings.TrimSpace(post.ID) == "" {
		return nil, models.NewValidationError("Post ID is required")
	}
	if err := s.requireLogin(); err != nil {
		return nil, err
	}

	env, err := apiclient.Do[models.Post](ctx, s.client, apiclient.MethodPut, postPath(post.ID), models.NewPostInput(post), true)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, models.ErrSaveFailed
	}

	s.bus.Publish(ctx, events.Event{Kind: events.PostsChanged, PostID: env.Data.ID})
	s.logger.LogCall(ctx, "Update", map[string]interface{}{"post_id": env.Data.ID})
	return env.Data, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, postID string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	if err := s.client.DoVoid(ctx, apiclient.MethodDelete, postPath(postID), nil, true); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.Event{Kind: events.PostsChanged, PostID: postID})
	s.logger.LogCall(ctx, "Delete", map[string]interface{}{"post_id": postID})
	return nil
}

// Like records a like and returns the post with its updated count.
func (s *PostService) Like(ctx context.Context, postID string) (*models.Post, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}
	env, err := apiclient.Do[models.Post](ctx, s.client, apiclient.MethodPost, postPath(postID)+"/like", nil, true)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, models.ErrPostNotFound
	}

	s.bus.Publish(ctx, events.Event{Kind: events.PostsChanged, PostID: postID})
	return env.Data, nil
}

// GetByID fetches one post.
func (s *PostService) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	env, err := apiclient.Do[models.Post](ctx, s.client, apiclient.MethodGet, postPath(postID), nil, false)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, models.ErrPostNotFound
	}
	return env.Data, nil
}

// ListAll returns a page of the global feed. Non-positive limit and negative
// offset fall back to 20 and 0.
func (s *PostService) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = normalizePage(limit, offset)
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return s.list(ctx, "/posts?"+q.Encode())
}

// ListForUser returns every post written by userID.
func (s *PostService) ListForUser(ctx context.Context, userID string) ([]models.Post, error) {
	return s.list(ctx, "/posts/user/"+url.PathEscape(userID))
}

// GetNearby returns posts within radiusMeters of the coordinate. A
// non-positive radius means 5000 meters.
func (s *PostService) GetNearby(ctx context.Context, latitude, longitude, radiusMeters float64) ([]models.Post, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadius
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("radiusInMeters", strconv.FormatFloat(radiusMeters, 'f', -1, 64))
	return s.list(ctx, "/posts/nearby?"+q.Encode())
}

// Search runs a text query over restaurant and dish names.
func (s *PostService) Search(ctx context.Context, query string, limit, offset int) ([]models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	limit, offset = normalizePage(limit, offset)
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return s.list(ctx, "/posts/search?"+q.Encode())
}

func (s *PostService) list(ctx context.Context, path string) ([]models.Post, error) {
	env, err := apiclient.Do[[]models.Post](ctx, s.client, apiclient.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []models.Post{}, nil
	}
	return *env.Data, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
