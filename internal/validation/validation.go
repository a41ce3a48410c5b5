// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"slurpsocial/internal/models"
)

// MinPasswordLength is the shortest password accepted at signup or login.
const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[A-Z0-9a-z._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,64}$`)

// Sentinel validation failures. Callers map them to their own error kinds.
var (
	ErrMissingField  = errors.New("please fill in all fields")
	ErrInvalidEmail  = errors.New("please enter a valid email address")
	ErrWeakPassword  = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrRatingRange   = fmt.Errorf("rating must be between %.1f and %.1f", models.MinRating, models.MaxRating)
	ErrRatingStep    = errors.New("rating must be a whole or half star")
	ErrEmptyComment  = errors.New("comment cannot be empty")
	ErrCommentLength = errors.New("comment too long (max 2000 characters)")
)

const maxCommentLength = 2000

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the minimum length, counted in characters.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// ValidateSignup runs the pre-flight checks for account creation in order:
// required fields, email format, password strength.
func ValidateSignup(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return ErrMissingField
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateLogin runs the pre-flight checks for a login attempt.
func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return ErrMissingField
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateRating checks the inclusive 1.0..5.0 range and half-star steps.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < models.MinRating || rating > models.MaxRating {
		return ErrRatingRange
	}
	steps := rating / models.RatingStep
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return ErrRatingStep
	}
	return nil
}

// ValidatePost checks the fields a review must carry before it is sent.
func ValidatePost(p *models.Post) error {
	if p == nil {
		return models.NewValidationError("post is required")
	}
	if strings.TrimSpace(p.RestaurantName) == "" {
		return models.NewValidationError("Restaurant name is required")
	}
	if strings.TrimSpace(p.RamenName) == "" {
		return models.NewValidationError("Ramen name is required")
	}
	if err := ValidateRating(p.Rating); err != nil {
		return &models.AppError{Code: models.CodeValidation, Message: err.Error(), Err: err}
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return models.NewValidationError("latitude and longitude must be provided together")
	}
	return nil
}

// ValidateComment trims content and checks it is non-empty and bounded.
func ValidateComment(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(trimmed) > maxCommentLength {
		return "", ErrCommentLength
	}
	return trimmed, nil
}
