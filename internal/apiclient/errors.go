package apiclient

import (
	"errors"
	"fmt"
)

// Transport failures.
var (
	ErrInvalidURL      = errors.New("invalid URL")
	ErrInvalidResponse = errors.New("invalid response from server")
	ErrTimeout         = errors.New("request timed out")
	ErrNetwork         = errors.New("network error")
)

// ServerError is a non-2xx response that carried an error envelope.
type ServerError struct {
	Code    string
	Message string
	Status  int
}

func (e *ServerError) Error() string {
	return e.Message
}

// HTTPError is a non-2xx response without a usable error envelope.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// DecodeError is a 2xx response whose body did not match the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ServerCode returns the server error code carried by err, or "" if none.
func ServerCode(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Code
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0 if none.
func StatusCode(err error) int {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsTransport reports whether err happened below the HTTP layer.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrInvalidURL)
}
