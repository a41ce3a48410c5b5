// Package devserver is a self-contained Slurp Social backend for local
// development and integration tests. Data lives in memory.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures a dev server.
type Config struct {
	JWTSecret string
	// ColdStart delays the first request, like a backend waking from sleep.
	ColdStart time.Duration
	// BodyLimit caps request bodies in bytes. Zero means 10MB.
	BodyLimit int
}

// Server serves the API under /api.
type Server struct {
	config    Config
	data      *memoryData
	app       *fiber.App
	coldStart sync.Once
	now       func() time.Time
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 10 * 1024 * 1024
	}
	s := &Server{
		config: cfg,
		data:   newMemoryData(),
		now:    func() time.Time { return time.Now().UTC() },
	}

	app := fiber.New(fiber.Config{
		AppName:               "Slurp Social Dev API",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return respondError(c, fiberErr.Code, statusCode(fiberErr.Code), fiberErr.Message)
			}
			observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return respondError(c, fiber.StatusInternalServerError, models.CodeInternal, "Internal server error")
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware installs recovery, request ids, and the cold start delay.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		s.coldStart.Do(func() {
			if s.config.ColdStart > 0 {
				time.Sleep(s.config.ColdStart)
			}
		})
		return c.Next()
	})
}

// SetupRoutes registers every endpoint.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Post("/login", s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	users := api.Group("/users")
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.AuthRequired(), s.UpdateUser)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Post("/", s.AuthRequired(), s.CreatePost)
	posts.Get("/nearby", s.NearbyPosts)
	posts.Get("/search", s.SearchPosts)
	posts.Get("/user/:id", s.UserPosts)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Get("/:id/image", s.PostImage)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", s.AuthRequired(), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.AuthRequired(), s.DeleteComment)
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// generateToken creates a JWT for the given user.
func (s *Server) generateToken(userID, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iss":      "slurp-devserver",
		"exp":      now.Add(7 * 24 * time.Hour).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// AuthRequired validates the bearer token and stores the user id in Locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return respondError(c, fiber.StatusUnauthorized, "unauthorized", "Authorization header required")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return respondError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return respondError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid token structure - missing subject")
		}

		s.data.mu.RLock()
		_, revoked := s.data.revoked[tokenString]
		_, exists := s.data.users[sub]
		s.data.mu.RUnlock()
		if revoked || !exists {
			return respondError(c, fiber.StatusUnauthorized, "notLoggedIn", "Session is no longer valid")
		}

		c.Locals("userID", sub)
		c.Locals("token", tokenString)
		return c.Next()
	}
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
