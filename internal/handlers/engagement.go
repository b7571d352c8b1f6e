package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type commentsQuery struct {
	Limit  int `form:"limit,default=20" validate:"gte=1,lte=50"`
	Offset int `form:"offset,default=0" validate:"gte=0"`
}

type EngagementHandler struct {
	engagement *service.EngagementService
	validator  *validation.Validator
}

func NewEngagementHandler(engagement *service.EngagementService, v *validation.Validator) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, validator: v}
}

// LikePost likes a post (PROTECTED)
func (h *EngagementHandler) LikePost(c *gin.Context) {
	postID, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.engagement.LikePost(c.Request.Context(), middleware.CurrentUserID(c), postID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post liked"})
}

// UnlikePost removes the authenticated user's like (PROTECTED)
func (h *EngagementHandler) UnlikePost(c *gin.Context) {
	postID, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.engagement.UnlikePost(c.Request.Context(), middleware.CurrentUserID(c), postID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post unliked"})
}

// GetComments lists the top-level comments of a post
func (h *EngagementHandler) GetComments(c *gin.Context) {
	postID, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var query commentsQuery
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	comments, hasMore, err := h.engagement.ListComments(c.Request.Context(), postID, query.Limit, query.Offset)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "hasMore": hasMore})
}

// CreateComment comments on a post, optionally as a reply (PROTECTED)
func (h *EngagementHandler) CreateComment(c *gin.Context) {
	postID, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var input service.AddCommentInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	comment, err := h.engagement.AddComment(c.Request.Context(), middleware.CurrentUserID(c), postID, input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
