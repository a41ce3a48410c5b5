package devserver

import (
	"errors"
	"strings"

	"slurpsocial/internal/models"
	"slurpsocial/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type authPayload struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.ValidateSignup(req.Username, req.Email, req.Password); err != nil {
		return respondError(c, fiber.StatusBadRequest, signupCode(err), err.Error())
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.data.mu.Lock()
	if _, taken := s.data.byUsername[strings.ToLower(req.Username)]; taken {
		s.data.mu.Unlock()
		return respondError(c, fiber.StatusConflict, "usernameAlreadyExists", "This username is already taken")
	}
	if _, taken := s.data.byEmail[req.Email]; taken {
		s.data.mu.Unlock()
		return respondError(c, fiber.StatusConflict, "emailAlreadyExists", "An account with this email already exists")
	}
	user := models.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		JoinDate:    models.NewTimestamp(s.now()),
	}
	s.data.users[user.ID] = &userRecord{user: user, passwordHash: hashedPassword}
	s.data.byUsername[strings.ToLower(user.Username)] = user.ID
	s.data.byEmail[user.Email] = user.ID
	s.data.mu.Unlock()

	return s.respondAuth(c, fiber.StatusCreated, user)
}

func signupCode(err error) string {
	switch {
	case errors.Is(err, validation.ErrInvalidEmail):
		return "invalidEmail"
	case errors.Is(err, validation.ErrWeakPassword):
		return "weakPassword"
	default:
		return "invalidCredentials"
	}
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return respondError(c, fiber.StatusBadRequest, "invalidCredentials", "Email and password are required")
	}

	s.data.mu.RLock()
	id, found := s.data.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]
	var rec userRecord
	if found {
		rec = *s.data.users[id]
	}
	s.data.mu.RUnlock()

	if !found {
		return respondError(c, fiber.StatusUnauthorized, "userNotFound", "No account found with this email")
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.Password)); err != nil {
		return respondError(c, fiber.StatusUnauthorized, "wrongPassword", "Incorrect password")
	}

	return s.respondAuth(c, fiber.StatusOK, rec.user)
}

func (s *Server) respondAuth(c *fiber.Ctx, status int, user models.User) error {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return err
	}

	s.data.mu.RLock()
	view, _ := s.data.userView(user.ID)
	s.data.mu.RUnlock()

	return respondData(c, status, authPayload{User: view, Token: token, TokenType: "Bearer"})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	s.data.mu.Lock()
	s.data.revoked[token] = struct{}{}
	s.data.mu.Unlock()
	return respondData(c, fiber.StatusOK, fiber.Map{})
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	s.data.mu.RLock()
	view, ok := s.data.userView(c.Params("id"))
	s.data.mu.RUnlock()
	if !ok {
		return respondError(c, fiber.StatusNotFound, "userNotFound", "User not found")
	}
	return respondData(c, fiber.StatusOK, view)
}

// UpdateUser handles PUT /api/users/:id. Users may only edit themselves.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != currentUserID(c) {
		return respondError(c, fiber.StatusForbidden, "forbidden", "You can only edit your own profile")
	}

	var req struct {
		DisplayName     *string `json:"displayName"`
		Bio             *string `json:"bio"`
		ProfileImageURL *string `json:"profileImageURL"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Invalid request body")
	}
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return respondError(c, fiber.StatusBadRequest, models.CodeValidation, "Display name cannot be empty")
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec, ok := s.data.users[id]
	if !ok {
		return respondError(c, fiber.StatusNotFound, "userNotFound", "User not found")
	}
	if req.DisplayName != nil {
		rec.user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		rec.user.Bio = req.Bio
	}
	if req.ProfileImageURL != nil {
		rec.user.ProfileImageURL = req.ProfileImageURL
	}
	view, _ := s.data.userView(id)
	return respondData(c, fiber.StatusOK, view)
}
