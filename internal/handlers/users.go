package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type UserHandler struct {
	users     *service.UserService
	validator *validation.Validator
}

func NewUserHandler(users *service.UserService, v *validation.Validator) *UserHandler {
	return &UserHandler{users: users, validator: v}
}

// GetProfile returns the authenticated user's own profile (PROTECTED)
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile edits the authenticated user's profile (PROTECTED)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input service.UpdateProfileInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetByUsername returns a user's public profile
func (h *UserHandler) GetByUsername(c *gin.Context) {
	profile, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Search finds users by username or name
func (h *UserHandler) Search(c *gin.Context) {
	var query service.SearchUsersInput
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	users, hasMore, err := h.users.Search(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "hasMore": hasMore})
}
