package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

// Services bundles the application services the handlers call into.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Social     *service.SocialService
	Feed       *service.FeedService
	Engagement *service.EngagementService
	Books      *service.BookService
	Uploads    *service.UploadService
}

// Handler combines all handler types
type Handler struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	User       *UserHandler
	Social     *SocialHandler
	Feed       *FeedHandler
	Engagement *EngagementHandler
	Book       *BookHandler
	Upload     *UploadHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db database.Service, svc Services, v *validation.Validator) *Handler {
	return &Handler{
		Health:     NewHealthHandler(db),
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.Users, v),
		Social:     NewSocialHandler(svc.Social, v),
		Feed:       NewFeedHandler(svc.Feed, v),
		Engagement: NewEngagementHandler(svc.Engagement, v),
		Book:       NewBookHandler(svc.Books),
		Upload:     NewUploadHandler(svc.Uploads),
	}
}

// bindJSON decodes the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required")
		}
		return apperrors.Validation("invalid request body").WithCause(err)
	}
	return nil
}

// bindQuery decodes and validates query parameters into dst.
func bindQuery(c *gin.Context, v *validation.Validator, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return apperrors.Validation("invalid query parameters").WithCause(err)
	}
	return v.Validate(dst)
}

// uuidParam parses the path parameter name as a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationWithDetails("validation failed",
			validation.FieldErrors{name: "must be a valid UUID"})
	}
	return id, nil
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
