package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type signupRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Rating   *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

type pageQuery struct {
	Limit int `form:"limit" validate:"gte=1,lte=50"`
}

func ptr[T any](v T) *T { return &v }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{
		Email:    "reader@example.com",
		Password: "password123",
		Username: ptr("book_worm"),
		Rating:   ptr(5),
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{
			name:      "invalid email",
			req:       signupRequest{Email: "nope", Password: "password123"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "short password",
			req:       signupRequest{Email: "a@b.co", Password: "short"},
			wantField: "password",
			wantMsg:   "must be at least 8 characters",
		},
		{
			name:      "bad username characters",
			req:       signupRequest{Email: "a@b.co", Password: "password123", Username: ptr("no spaces")},
			wantField: "username",
			wantMsg:   "may only contain letters, numbers and underscores",
		},
		{
			name:      "rating out of range",
			req:       signupRequest{Email: "a@b.co", Password: "password123", Rating: ptr(6)},
			wantField: "rating",
			wantMsg:   "must be less than or equal to 5",
		},
		{
			name:      "form tag names",
			req:       pageQuery{Limit: 0},
			wantField: "limit",
			wantMsg:   "must be greater than or equal to 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *apperrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			fields, ok := domainErr.Details.(validation.FieldErrors)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, fields[tt.wantField])
		})
	}
}
