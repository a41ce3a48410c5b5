// Package session holds the authenticated identity shared by the API client
// and the services.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
	"slurpsocial/internal/store"
)

// Persisted state keys.
const (
	TokenKey = "authToken"
	UserKey  = "currentUser"
)

// ErrUserChanged is returned by UpdateUser when a different user signed in
// since the update was fetched.
var ErrUserChanged = errors.New("session: signed-in user changed")

// Session is the token and user pair. Both are set or both are empty.
type Session struct {
	mu    sync.RWMutex
	store store.Store
	token string
	user  *models.User
}

// New returns an empty session backed by s. Call Restore to load a saved one.
func New(s store.Store) *Session {
	return &Session{store: s}
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsLoggedIn reports whether a token and user are present.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Establish persists token and user together and then makes them current.
func (s *Session) Establish(ctx context.Context, token string, user *models.User) error {
	if token == "" || user == nil {
		return errors.New("session: token and user are both required")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetMany(ctx, map[string]string{TokenKey: token, UserKey: string(raw)}); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	s.token = token
	s.user = user.Clone()
	return nil
}

// UpdateUser replaces the stored user while keeping the token.
func (s *Session) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("session: user is required")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return models.ErrNotLoggedIn
	}
	if s.user != nil && s.user.ID != user.ID {
		return ErrUserChanged
	}
	if err := s.store.SetMany(ctx, map[string]string{UserKey: string(raw)}); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	s.user = user.Clone()
	return nil
}

// Clear logs out locally. Memory is always cleared; a store failure is returned.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := s.store.Delete(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Restore loads a saved session without touching the network. A half-saved
// or unreadable session is discarded.
func (s *Session) Restore(ctx context.Context) error {
	token, tokenErr := s.store.Get(ctx, TokenKey)
	if tokenErr != nil && !errors.Is(tokenErr, store.ErrNotFound) {
		return fmt.Errorf("session: load token: %w", tokenErr)
	}
	rawUser, userErr := s.store.Get(ctx, UserKey)
	if userErr != nil && !errors.Is(userErr, store.ErrNotFound) {
		return fmt.Errorf("session: load user: %w", userErr)
	}

	var user *models.User
	if userErr == nil {
		var decoded models.User
		if err := json.Unmarshal([]byte(rawUser), &decoded); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "discarding unreadable saved user",
				slog.String("error", err.Error()))
		} else {
			user = &decoded
		}
	}

	if tokenErr != nil || token == "" || user == nil {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return nil
}
