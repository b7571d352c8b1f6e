package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type feedQuery struct {
	Limit  int    `form:"limit,default=20" validate:"gte=1,lte=50"`
	Offset int    `form:"offset,default=0" validate:"gte=0"`
	Type   string `form:"type,default=following" validate:"oneof=following discover"`
}

type FeedHandler struct {
	feed      *service.FeedService
	validator *validation.Validator
}

func NewFeedHandler(feed *service.FeedService, v *validation.Validator) *FeedHandler {
	return &FeedHandler{feed: feed, validator: v}
}

// GetFeed returns the authenticated user's following or discover feed (PROTECTED)
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var query feedQuery
	if err := bindQuery(c, h.validator, &query); err != nil {
		fail(c, err)
		return
	}

	posts, hasMore, err := h.feed.AssembleFeed(c.Request.Context(), middleware.CurrentUserID(c),
		service.FeedMode(query.Type), query.Limit, query.Offset)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "hasMore": hasMore})
}

// CreatePost publishes a post by the authenticated user (PROTECTED)
func (h *FeedHandler) CreatePost(c *gin.Context) {
	var input service.CreatePostInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	post, err := h.feed.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post (PROTECTED)
func (h *FeedHandler) GetPost(c *gin.Context) {
	postID, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.feed.GetPost(c.Request.Context(), middleware.CurrentUserID(c), postID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}
