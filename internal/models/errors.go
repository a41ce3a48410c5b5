package models

import (
	"errors"
	"fmt"
)

// Error codes shared by the client and the dev server envelope.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Domain errors raised when the server answers successfully but the data the
// caller expected is absent.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrUnauthorized = errors.New("you are not authorized to perform this action")
	ErrSaveFailed   = errors.New("failed to save post")
	ErrNotLoggedIn  = errors.New("you must be logged in")
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Err:     ErrPostNotFound,
	}
}

// NewValidationError reports input rejected before any network call.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewUnauthorizedError reports an action the current user may not perform.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// IsValidationError reports whether err carries a VALIDATION_ERROR AppError.
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeValidation
}
