package devserver

import (
	"cmp"
	"encoding/base64"
	"errors"
	"net/http"
	"slices"
	"strings"

	"slurpsocial/internal/models"
	"slurpsocial/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxPageLimit = 100

// applyInput copies a request body onto p and returns any decoded image.
func applyInput(p *models.Post, in models.PostInput) ([]byte, error) {
	p.RestaurantName = strings.TrimSpace(in.RestaurantName)
	p.RamenName = strings.TrimSpace(in.RamenName)
	p.Rating = in.Rating
	p.Review = in.Review
	p.ImageURL = in.ImageURL
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.Address = in.Address
	p.BrothType = models.BrothUnset
	p.SpiceLevel = models.SpiceUnset
	p.NoodleTexture = models.NoodleUnset
	if in.BrothType != nil {
		p.BrothType = models.ParseBrothType(*in.BrothType)
	}
	if in.SpiceLevel != nil {
		p.SpiceLevel = models.ParseSpiceLevel(*in.SpiceLevel)
	}
	if in.NoodleTexture != nil {
		p.NoodleTexture = models.ParseNoodleTexture(*in.NoodleTexture)
	}
	if in.ImageData == nil || *in.ImageData == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(*in.ImageData)
}

func pageParams(c *fiber.Ctx) (int, int) {
	limit := queryInt(c, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, maxPageLimit)
	offset := max(queryInt(c, "offset", 0), 0)
	return limit, offset
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}

	post := models.Post{
		ID:        uuid.NewString(),
		UserID:    currentUserID(c),
		CreatedAt: models.NewTimestamp(s.now()),
	}
	image, err := applyInput(&post, in)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "imageData must be base64")
	}
	if err := validation.ValidatePost(&post); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, validationMessage(err))
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec := &postRecord{post: post, likedBy: make(map[string]struct{}), image: image}
	s.data.posts[post.ID] = rec
	return respondData(c, fiber.StatusCreated, s.data.postView(rec))
}

func validationMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	s.data.mu.RLock()
	all := s.data.sortedPosts(nil)
	s.data.mu.RUnlock()

	items, pagination := page(all, limit, offset)
	return respondPage(c, items, pagination)
}

// UserPosts handles GET /api/posts/user/:id
func (s *Server) UserPosts(c *fiber.Ctx) error {
	userID := c.Params("id")
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if _, ok := s.data.users[userID]; !ok {
		return respondError(c, fiber.StatusNotFound, "userNotFound", "User not found")
	}
	posts := s.data.sortedPosts(func(r *postRecord) bool { return r.post.UserID == userID })
	return respondData(c, fiber.StatusOK, posts)
}

// NearbyPosts handles GET /api/posts/nearby
func (s *Server) NearbyPosts(c *fiber.Ctx) error {
	lat, okLat := queryFloat(c, "latitude")
	lon, okLon := queryFloat(c, "longitude")
	if !okLat || !okLon || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "latitude and longitude are required")
	}
	radius, ok := queryFloat(c, "radiusInMeters")
	if !ok || radius <= 0 {
		radius = 5000
	}

	type hit struct {
		post     models.Post
		distance float64
	}
	s.data.mu.RLock()
	var hits []hit
	for _, rec := range s.data.posts {
		coord, ok := rec.post.Coordinate()
		if !ok {
			continue
		}
		if d := haversine(lat, lon, coord.Latitude, coord.Longitude); d <= radius {
			hits = append(hits, hit{post: s.data.postView(rec), distance: d})
		}
	}
	s.data.mu.RUnlock()

	slices.SortFunc(hits, func(a, b hit) int { return cmp.Compare(a.distance, b.distance) })
	posts := make([]models.Post, len(hits))
	for i, h := range hits {
		posts[i] = h.post
	}
	return respondData(c, fiber.StatusOK, posts)
}

// SearchPosts handles GET /api/posts/search
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	if query == "" {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Search query is required")
	}
	limit, offset := pageParams(c)

	s.data.mu.RLock()
	matches := s.data.sortedPosts(func(r *postRecord) bool {
		p := r.post
		fields := []string{p.RestaurantName, p.RamenName, p.BrothType.Token(), p.BrothType.String()}
		if p.Review != nil {
			fields = append(fields, *p.Review)
		}
		if p.Address != nil {
			fields = append(fields, *p.Address)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), query) {
				return true
			}
		}
		return false
	})
	s.data.mu.RUnlock()

	items, pagination := page(matches, limit, offset)
	return respondPage(c, items, pagination)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	rec, ok := s.data.posts[c.Params("id")]
	if !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	return respondData(c, fiber.StatusOK, s.data.postView(rec))
}

// UpdatePost handles PUT /api/posts/:id. Only the author may edit.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.posts[c.Params("id")]
	if !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	if rec.post.UserID != currentUserID(c) {
		return respondError(c, fiber.StatusForbidden, "forbidden", "You are not authorized to perform this action")
	}

	updated := rec.post
	image, err := applyInput(&updated, in)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "imageData must be base64")
	}
	if err := validation.ValidatePost(&updated); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, validationMessage(err))
	}
	rec.post = updated
	if image != nil {
		rec.image = image
	}
	return respondData(c, fiber.StatusOK, s.data.postView(rec))
}

// DeletePost handles DELETE /api/posts/:id. Only the author may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id := c.Params("id")
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.posts[id]
	if !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	if rec.post.UserID != currentUserID(c) {
		return respondError(c, fiber.StatusForbidden, "forbidden", "You are not authorized to perform this action")
	}
	delete(s.data.posts, id)
	delete(s.data.comments, id)
	return respondData(c, fiber.StatusOK, fiber.Map{})
}

// LikePost handles POST /api/posts/:id/like. Each user counts once.
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.posts[c.Params("id")]
	if !ok {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Post not found")
	}
	if _, liked := rec.likedBy[userID]; !liked {
		rec.likedBy[userID] = struct{}{}
		rec.post.Likes++
	}
	return respondData(c, fiber.StatusOK, s.data.postView(rec))
}

// PostImage handles GET /api/posts/:id/image with the raw uploaded bytes.
func (s *Server) PostImage(c *fiber.Ctx) error {
	s.data.mu.RLock()
	rec, ok := s.data.posts[c.Params("id")]
	var image []byte
	if ok {
		image = rec.image
	}
	s.data.mu.RUnlock()

	if len(image) == 0 {
		return respondError(c, fiber.StatusNotFound, models.CodeNotFound, "Image not found")
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(image))
	return c.Send(image)
}
