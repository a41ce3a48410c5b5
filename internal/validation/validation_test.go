package validation

import (
	"strings"
	"testing"

	"slurpsocial/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "a@b.com", false},
		{"Plus And Dots", "first.last+ramen@mail.example.jp", false},
		{"Missing At", "ab.com", true},
		{"Missing TLD", "a@b", true},
		{"Short TLD", "a@b.c", true},
		{"Digit TLD", "a@b.c0m", true},
		{"Spaces", "a @b.com", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEmail)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("sixsix"))
	assert.NoError(t, ValidatePassword("ラーメン大好"), "length is counted in characters")
}

func TestValidateSignup_Order(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, ValidateSignup("", "a@b.com", "secret1"), ErrMissingField)
	assert.ErrorIs(t, ValidateSignup("u", "bad", "x"), ErrInvalidEmail, "email is checked before password")
	assert.ErrorIs(t, ValidateSignup("u", "a@b.com", "x"), ErrWeakPassword)
	assert.NoError(t, ValidateSignup("u", "a@b.com", "secret1"))
}

func TestValidateRating(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rating  float64
		wantErr error
	}{
		{1.0, nil},
		{5.0, nil},
		{3.5, nil},
		{0.99, ErrRatingRange},
		{5.01, ErrRatingRange},
		{0, ErrRatingRange},
		{4.25, ErrRatingStep},
	}

	for _, tt := range tests {
		err := ValidateRating(tt.rating)
		if tt.wantErr == nil {
			assert.NoError(t, err, "rating %v", tt.rating)
		} else {
			assert.ErrorIs(t, err, tt.wantErr, "rating %v", tt.rating)
		}
	}
}

func TestValidatePost(t *testing.T) {
	t.Parallel()
	lat := 1.0

	assert.NoError(t, ValidatePost(&models.Post{RestaurantName: "Afuri", RamenName: "Yuzu Shio", Rating: 4}))
	assert.True(t, models.IsValidationError(ValidatePost(&models.Post{RamenName: "x", Rating: 4})))
	assert.True(t, models.IsValidationError(ValidatePost(&models.Post{RestaurantName: "x", RamenName: "y", Rating: 0.5})))
	assert.True(t, models.IsValidationError(ValidatePost(&models.Post{RestaurantName: "x", RamenName: "y", Rating: 3, Latitude: &lat})))
}

func TestValidateComment(t *testing.T) {
	t.Parallel()
	got, err := ValidateComment("  great broth  ")
	assert.NoError(t, err)
	assert.Equal(t, "great broth", got)

	_, err = ValidateComment("   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = ValidateComment(strings.Repeat("x", 2001))
	assert.ErrorIs(t, err, ErrCommentLength)
}
