package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type followRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type followListQuery struct {
	Limit  int `form:"limit,default=20" validate:"gte=1,lte=100"`
	Offset int `form:"offset,default=0" validate:"gte=0"`
}

type suggestionsQuery struct {
	Limit int `form:"limit,default=10" validate:"gte=1,lte=50"`
}

type SocialHandler struct {
	social    *service.SocialService
	validator *validation.Validator
}

func NewSocialHandler(social *service.SocialService, v *validation.Validator) *SocialHandler {
	return &SocialHandler{social: social, validator: v}
}

// Follow makes the authenticated user follow another user (PROTECTED)
func (h *SocialHandler) Follow(c *gin.Context) {
	var input followRequest
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}
	if err := h.validator.Validate(input); err != nil {
		fail(c, err)
		return
	}

	if err := h.social.Follow(c.Request.Context(), middleware.CurrentUserID(c), uuid.MustParse(input.UserID)); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully followed user"})
}

// Unfollow removes a follow edge of the authenticated user (PROTECTED)
func (h *SocialHandler) Unfollow(c *gin.Context) {
	targetID, err := uuidParam(c, "userId")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.social.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), targetID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully unfollowed user"})
}

// Followers lists the users following :userId
func (h *SocialHandler) Followers(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		fail(c, err)
		return
	}
	var query followListQuery
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	followers, hasMore, err := h.social.ListFollowers(c.Request.Context(), userID, query.Limit, query.Offset)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"followers": followers, "hasMore": hasMore})
}

// Following lists the users :userId follows
func (h *SocialHandler) Following(c *gin.Context) {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		fail(c, err)
		return
	}
	var query followListQuery
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	following, hasMore, err := h.social.ListFollowing(c.Request.Context(), userID, query.Limit, query.Offset)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following, "hasMore": hasMore})
}

// Suggestions recommends users to follow (PROTECTED)
func (h *SocialHandler) Suggestions(c *gin.Context) {
	var query suggestionsQuery
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	suggestions, err := h.social.SuggestUsers(c.Request.Context(), middleware.CurrentUserID(c), query.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
