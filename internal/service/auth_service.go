// Package service implements the account, post, and comment operations on
// top of the API client and the shared session.
package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/events"
	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
	"slurpsocial/internal/session"
	"slurpsocial/internal/validation"
)

// Timeouts for calls that outlive the operation that started them.
const (
	logoutTimeout  = 10 * time.Second
	refreshTimeout = 15 * time.Second
)

// SignUpInput is the account creation payload.
type SignUpInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput holds the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	DisplayName     *string `json:"displayName,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profileImageURL,omitempty"`
}

// AuthResponse is the payload of the signup and login endpoints.
type AuthResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	TokenType *string     `json:"tokenType,omitempty"`
}

// AuthService signs users in and out and keeps the session's user current.
type AuthService struct {
	client  *apiclient.Client
	session *session.Session
	bus     *events.Bus
	logger  *observability.ServiceLogger
	pending sync.WaitGroup
}

func NewAuthService(client *apiclient.Client, sess *session.Session, bus *events.Bus) *AuthService {
	return &AuthService{
		client:  client,
		session: sess,
		bus:     bus,
		logger:  observability.NewServiceLogger("auth"),
	}
}

// IsLoggedIn reports whether a session is active.
func (s *AuthService) IsLoggedIn() bool {
	return s.session.IsLoggedIn()
}

// CurrentUser returns the signed-in user, or nil.
func (s *AuthService) CurrentUser() *models.User {
	return s.session.CurrentUser()
}

// SignUp creates an account and signs in. An empty display name defaults to the username.
func (s *AuthService) SignUp(ctx context.Context, username, email, password, displayName string) (*models.User, error) {
	if err := validation.ValidateSignup(username, email, password); err != nil {
		return nil, toAuthError(err)
	}
	if displayName == "" {
		displayName = username
	}

	in := SignUpInput{Username: username, Email: email, Password: password, DisplayName: displayName}
	return s.authenticate(ctx, "SignUp", "/auth/signup", in)
}

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := validation.ValidateLogin(email, password); err != nil {
		return nil, toAuthError(err)
	}
	return s.authenticate(ctx, "Login", "/auth/login", loginInput{Email: email, Password: password})
}

func (s *AuthService) authenticate(ctx context.Context, method, path string, body any) (*models.User, error) {
	env, err := apiclient.Do[AuthResponse](ctx, s.client, apiclient.MethodPost, path, body, false)
	if err != nil {
		return nil, toAuthError(err)
	}
	if env.Data == nil || env.Data.Token == "" {
		return nil, &AuthError{Kind: AuthUnknown, Err: errors.New("auth response carried no token")}
	}

	user := env.Data.User
	if err := s.session.Establish(ctx, env.Data.Token, &user); err != nil {
		return nil, &AuthError{Kind: AuthUnknown, Err: err}
	}
	s.bus.Publish(ctx, events.Event{Kind: events.AuthStateChanged, UserID: user.ID})
	s.logger.LogCall(ctx, method, map[string]interface{}{"user_id": user.ID})
	return user.Clone(), nil
}

// Logout clears the local session immediately and invalidates the token on
// the server in the background. The server call's outcome is ignored. The
// returned error reports a saved session that could not be erased; memory is
// cleared regardless.
func (s *AuthService) Logout(ctx context.Context) error {
	token := s.session.Token()
	clearErr := s.session.Clear(ctx)
	s.bus.Publish(ctx, events.Event{Kind: events.AuthStateChanged})

	if token != "" {
		s.background(ctx, logoutTimeout, func(callCtx context.Context) {
			callCtx = apiclient.ContextWithToken(callCtx, token)
			if err := s.client.DoVoid(callCtx, apiclient.MethodPost, "/auth/logout", nil, true); err != nil {
				s.logger.LogIgnored(callCtx, "Logout", err)
			}
		})
	}
	return clearErr
}

// RefreshInBackground reloads the signed-in user without blocking the caller.
// Failures are logged. Drain waits for it.
func (s *AuthService) RefreshInBackground(ctx context.Context) {
	if !s.session.IsLoggedIn() {
		return
	}
	s.background(ctx, refreshTimeout, func(callCtx context.Context) {
		if _, err := s.RefreshCurrentUser(callCtx); err != nil {
			s.logger.LogIgnored(callCtx, "RefreshInBackground", err)
		}
	})
}

// background runs fn detached from ctx's cancellation, bounded by timeout.
func (s *AuthService) background(ctx context.Context, timeout time.Duration, fn func(context.Context)) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		fn(callCtx)
	}()
}

// Drain waits for background logout and refresh calls to finish or ctx to end.
func (s *AuthService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateProfile edits the signed-in user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	current := s.session.CurrentUser()
	if current == nil {
		return nil, ErrAuthNotLoggedIn
	}
	return s.syncUser(ctx, "UpdateProfile", apiclient.MethodPut, current.ID, in)
}

// RefreshCurrentUser reloads the signed-in user from the server.
func (s *AuthService) RefreshCurrentUser(ctx context.Context) (*models.User, error) {
	current := s.session.CurrentUser()
	if current == nil {
		return nil, ErrAuthNotLoggedIn
	}
	return s.syncUser(ctx, "RefreshCurrentUser", apiclient.MethodGet, current.ID, nil)
}

func (s *AuthService) syncUser(ctx context.Context, method, httpMethod, userID string, body any) (*models.User, error) {
	env, err := apiclient.Do[models.User](ctx, s.client, httpMethod, "/users/"+url.PathEscape(userID), body, true)
	if err != nil {
		return nil, toAuthError(err)
	}
	if env.Data == nil {
		return nil, &AuthError{Kind: AuthUnknown, Err: errors.New("user response carried no data")}
	}

	if err := s.session.UpdateUser(ctx, env.Data); err != nil {
		if errors.Is(err, models.ErrNotLoggedIn) {
			return nil, &AuthError{Kind: AuthNotLoggedIn, Err: err}
		}
		return nil, &AuthError{Kind: AuthUnknown, Err: err}
	}
	s.bus.Publish(ctx, events.Event{Kind: events.AuthStateChanged, UserID: env.Data.ID})
	s.logger.LogCall(ctx, method, map[string]interface{}{"user_id": env.Data.ID})
	return env.Data.Clone(), nil
}
