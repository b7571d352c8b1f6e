package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

const maxFeedPage = 50

// FeedMode selects which posts a feed contains.
type FeedMode string

const (
	// FeedFollowing holds the viewer's own posts and those of users they follow.
	FeedFollowing FeedMode = "following"
	// FeedDiscover holds every public post.
	FeedDiscover FeedMode = "discover"
)

// CreatePostInput is the post contract accepted from clients.
type CreatePostInput struct {
	Content            string          `json:"content" validate:"required,min=1,max=2000"`
	PostType           models.PostType `json:"postType" validate:"required,oneof=quote progress review thought recommendation"`
	BookID             *uuid.UUID      `json:"bookId"`
	QuoteText          *string         `json:"quoteText" validate:"omitnil,max=1000"`
	PageNumber         *int            `json:"pageNumber" validate:"omitnil,gte=1"`
	ProgressPercentage *int            `json:"progressPercentage" validate:"omitnil,gte=0,lte=100"`
	Rating             *int            `json:"rating" validate:"omitnil,gte=1,lte=5"`
	ImageURL           *string         `json:"imageUrl" validate:"omitnil,url"`
	IsPrivate          bool            `json:"isPrivate"`
}

// FeedService stores posts and assembles feeds.
type FeedService struct {
	db        *gorm.DB
	validator *validation.Validator
	log       *zap.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(db *gorm.DB, v *validation.Validator, log *zap.Logger) *FeedService {
	return &FeedService{db: db, validator: v, log: log.Named("feed")}
}

// CreatePost validates in and stores a post authored by userID.
func (s *FeedService) CreatePost(ctx context.Context, userID uuid.UUID, in CreatePostInput) (*models.FeedPost, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	if in.BookID != nil {
		var n int64
		if err := db.Model(&models.Book{}).Where("id = ?", *in.BookID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("find book: %w", err)
		}
		if n == 0 {
			return nil, apperrors.NotFound("book not found")
		}
	}

	post := models.Post{
		UserID:             userID,
		Content:            in.Content,
		PostType:           in.PostType,
		BookID:             in.BookID,
		QuoteText:          in.QuoteText,
		PageNumber:         in.PageNumber,
		ProgressPercentage: in.ProgressPercentage,
		Rating:             in.Rating,
		ImageURL:           in.ImageURL,
		IsPrivate:          in.IsPrivate,
	}
	if err := db.Omit(clause.Associations).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.log.Info("post created",
		zap.Stringer("post_id", post.ID),
		zap.Stringer("user_id", userID),
		zap.String("type", string(post.PostType)),
	)

	return s.loadPost(db, post.ID)
}

// GetPost returns a single post. Private posts are visible to their author
// only; anyone else gets not found.
func (s *FeedService) GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*models.FeedPost, error) {
	fp, err := s.loadPost(s.db.WithContext(ctx), postID)
	if err != nil {
		return nil, err
	}
	if fp.IsPrivate && fp.UserID != viewerID {
		return nil, apperrors.NotFound("post not found")
	}
	return fp, nil
}

// AssembleFeed returns a page of public posts, newest first. In following
// mode only posts by the viewer and by users the viewer follows are
// included. An empty mode means following.
func (s *FeedService) AssembleFeed(ctx context.Context, viewerID uuid.UUID, mode FeedMode, limit, offset int) ([]models.FeedPost, bool, error) {
	if mode == "" {
		mode = FeedFollowing
	}
	if mode != FeedFollowing && mode != FeedDiscover {
		return nil, false, apperrors.ValidationWithDetails("validation failed",
			validation.FieldErrors{"type": "must be one of: following discover"})
	}
	limit, offset = normalizePage(limit, offset, DefaultPageSize, maxFeedPage)

	q := s.db.WithContext(ctx).Joins("User").Joins("Book").
		Where("posts.is_private = ?", false)
	if mode == FeedFollowing {
		followed := s.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", viewerID)
		q = q.Where("(posts.user_id = ? OR posts.user_id IN (?))", viewerID, followed)
	}
	q = q.Order("posts.created_at DESC").Order("posts.id DESC")

	var posts []models.Post
	if err := page(q, limit, offset).Find(&posts).Error; err != nil {
		return nil, false, fmt.Errorf("assemble %s feed: %w", mode, err)
	}

	posts, hasMore := trimPage(posts, limit)
	out := make([]models.FeedPost, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].FeedView())
	}
	return out, hasMore, nil
}

func (s *FeedService) loadPost(db *gorm.DB, postID uuid.UUID) (*models.FeedPost, error) {
	var post models.Post
	err := db.Joins("User").Joins("Book").Where("posts.id = ?", postID).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	fp := post.FeedView()
	return &fp, nil
}
