package service

import (
	"errors"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/validation"
)

// AuthErrorKind classifies an authentication failure.
type AuthErrorKind int

const (
	AuthUnknown AuthErrorKind = iota
	AuthInvalidCredentials
	AuthInvalidEmail
	AuthWeakPassword
	AuthUsernameAlreadyExists
	AuthEmailAlreadyExists
	AuthUserNotFound
	AuthWrongPassword
	AuthNotLoggedIn
	AuthNetworkError
)

var authMessages = map[AuthErrorKind]string{
	AuthUnknown:               "An unknown error occurred",
	AuthInvalidCredentials:    "Please fill in all fields",
	AuthInvalidEmail:          "Please enter a valid email address",
	AuthWeakPassword:          "Password must be at least 6 characters",
	AuthUsernameAlreadyExists: "This username is already taken",
	AuthEmailAlreadyExists:    "An account with this email already exists",
	AuthUserNotFound:          "No account found with this email",
	AuthWrongPassword:         "Incorrect password",
	AuthNotLoggedIn:           "You must be logged in to perform this action",
	AuthNetworkError:          "Network error. Please check your connection",
}

// serverAuthCodes maps server error codes onto kinds.
var serverAuthCodes = map[string]AuthErrorKind{
	"invalidCredentials":    AuthInvalidCredentials,
	"invalidEmail":          AuthInvalidEmail,
	"weakPassword":          AuthWeakPassword,
	"usernameAlreadyExists": AuthUsernameAlreadyExists,
	"emailAlreadyExists":    AuthEmailAlreadyExists,
	"userNotFound":          AuthUserNotFound,
	"wrongPassword":         AuthWrongPassword,
	"notLoggedIn":           AuthNotLoggedIn,
	"unauthorized":          AuthNotLoggedIn,
}

func (k AuthErrorKind) String() string {
	if msg, ok := authMessages[k]; ok {
		return msg
	}
	return authMessages[AuthUnknown]
}

// AuthError is returned by every AuthService operation.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so the Err* values below work
// with errors.Is.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Kind-only values for errors.Is.
var (
	ErrAuthInvalidCredentials    = &AuthError{Kind: AuthInvalidCredentials}
	ErrAuthInvalidEmail          = &AuthError{Kind: AuthInvalidEmail}
	ErrAuthWeakPassword          = &AuthError{Kind: AuthWeakPassword}
	ErrAuthUsernameAlreadyExists = &AuthError{Kind: AuthUsernameAlreadyExists}
	ErrAuthEmailAlreadyExists    = &AuthError{Kind: AuthEmailAlreadyExists}
	ErrAuthUserNotFound          = &AuthError{Kind: AuthUserNotFound}
	ErrAuthWrongPassword         = &AuthError{Kind: AuthWrongPassword}
	ErrAuthNotLoggedIn           = &AuthError{Kind: AuthNotLoggedIn}
	ErrAuthNetwork               = &AuthError{Kind: AuthNetworkError}
	ErrAuthUnknown               = &AuthError{Kind: AuthUnknown}
)

// AuthErrorKindOf returns the kind carried by err, or AuthUnknown.
func AuthErrorKindOf(err error) AuthErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return AuthUnknown
}

// toAuthError classifies a validation or transport failure.
func toAuthError(err error) *AuthError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	switch {
	case errors.Is(err, validation.ErrMissingField):
		return &AuthError{Kind: AuthInvalidCredentials, Err: err}
	case errors.Is(err, validation.ErrInvalidEmail):
		return &AuthError{Kind: AuthInvalidEmail, Err: err}
	case errors.Is(err, validation.ErrWeakPassword):
		return &AuthError{Kind: AuthWeakPassword, Err: err}
	}

	if code := apiclient.ServerCode(err); code != "" {
		if kind, ok := serverAuthCodes[code]; ok {
			return &AuthError{Kind: kind, Err: err}
		}
		return &AuthError{Kind: AuthUnknown, Err: err}
	}
	if apiclient.IsTransport(err) {
		return &AuthError{Kind: AuthNetworkError, Err: err}
	}
	return &AuthError{Kind: AuthUnknown, Err: err}
}
