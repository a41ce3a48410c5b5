package devserver

import (
	"slices"

	"slurpsocial/internal/models"
	"slurpsocial/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ListComments handles GET /api/posts/:id/comments, oldest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID := c.Params("id")
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if _, ok := s.data.posts[postID]; !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	stored := s.data.comments[postID]
	out := make([]models.Comment, len(stored))
	for i, cm := range stored {
		out[i] = s.data.commentView(cm)
	}
	return respondData(c, fiber.StatusOK, out)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}
	content, err := validation.ValidateComment(req.Content)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, err.Error())
	}

	postID := c.Params("id")
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.posts[postID]; !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    currentUserID(c),
		Content:   content,
		CreatedAt: models.NewTimestamp(s.now()),
	}
	s.data.comments[postID] = append(s.data.comments[postID], comment)
	return respondData(c, fiber.StatusCreated, s.data.commentView(comment))
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId. The
// comment author or the post owner may delete.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID := c.Params("id")
	commentID := c.Params("commentId")

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.posts[postID]
	if !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	stored := s.data.comments[postID]
	idx := slices.IndexFunc(stored, func(cm models.Comment) bool { return cm.ID == commentID })
	if idx < 0 {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Comment not found")
	}
	if !stored[idx].CanDelete(currentUserID(c), &rec.post) {
		return respondError(c, fiber.StatusForbidden, "forbidden", "You are not authorized to perform this action")
	}
	s.data.comments[postID] = slices.Delete(stored, idx, idx+1)
	return respondData(c, fiber.StatusOK, fiber.Map{})
}
