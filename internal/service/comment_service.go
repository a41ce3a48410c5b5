package service

import (
	"context"
	"net/url"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
	"slurpsocial/internal/session"
	"slurpsocial/internal/validation"
)

type createCommentInput struct {
	Content string `json:"content"`
}

// CommentService reads and writes the comments under a post.
type CommentService struct {
	client  *apiclient.Client
	session *session.Session
	logger  *observability.ServiceLogger
}

func NewCommentService(client *apiclient.Client, sess *session.Session) *CommentService {
	return &CommentService{
		client:  client,
		session: sess,
		logger:  observability.NewServiceLogger("comments"),
	}
}

func commentsPath(postID string) string {
	return postPath(postID) + "/comments"
}

// List returns the comments on a post in server order.
func (s *CommentService) List(ctx context.Context, postID string) ([]models.Comment, error) {
	env, err := apiclient.Do[[]models.Comment](ctx, s.client, apiclient.MethodGet, commentsPath(postID), nil, false)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []models.Comment{}, nil
	}
	return *env.Data, nil
}

// Create adds a comment as the signed-in user. Content is trimmed.
func (s *CommentService) Create(ctx context.Context, postID, content string) (*models.Comment, error) {
	trimmed, err := validation.ValidateComment(content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !s.session.IsLoggedIn() {
		return nil, models.ErrNotLoggedIn
	}

	env, err := apiclient.Do[models.Comment](ctx, s.client, apiclient.MethodPost, commentsPath(postID),
		createCommentInput{Content: trimmed}, true)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, models.ErrSaveFailed
	}
	s.logger.LogCall(ctx, "Create", map[string]interface{}{"post_id": postID, "comment_id": env.Data.ID})
	return env.Data, nil
}

// Delete removes comment from post. Only its author or the post's author may.
// post may be nil when the caller wrote the comment; the comment's PostID
// addresses it then.
func (s *CommentService) Delete(ctx context.Context, post *models.Post, comment *models.Comment) error {
	if comment == nil || comment.ID == "" {
		return models.NewValidationError("Comment is required")
	}
	postID := comment.PostID
	if post != nil {
		postID = post.ID
	}
	if postID == "" {
		return models.NewValidationError("Post ID is required")
	}

	user := s.session.CurrentUser()
	if user == nil {
		return models.ErrNotLoggedIn
	}
	if !comment.CanDelete(user.ID, post) {
		return models.NewUnauthorizedError("Only the comment author or the post owner can delete this comment")
	}

	path := commentsPath(postID) + "/" + url.PathEscape(comment.ID)
	if err := s.client.DoVoid(ctx, apiclient.MethodDelete, path, nil, true); err != nil {
		return err
	}
	s.logger.LogCall(ctx, "Delete", map[string]interface{}{"post_id": postID, "comment_id": comment.ID})
	return nil
}
