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
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

const maxCommentPage = 50

// AddCommentInput is the comment contract accepted from clients.
type AddCommentInput struct {
	Content         string     `json:"content" validate:"required,min=1,max=500"`
	ParentCommentID *uuid.UUID `json:"parentCommentId"`
}

// EngagementService records likes and comments and keeps the post
// counters in step with them.
type EngagementService struct {
	db        *gorm.DB
	validator *validation.Validator
	log       *zap.Logger
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(db *gorm.DB, v *validation.Validator, log *zap.Logger) *EngagementService {
	return &EngagementService{db: db, validator: v, log: log.Named("engagement")}
}

// LikePost records that userID likes postID.
func (s *EngagementService) LikePost(ctx context.Context, userID, postID uuid.UUID) error {
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error; err != nil {
			return fmt.Errorf("find like: %w", err)
		}
		if n > 0 {
			return apperrors.Conflict("already liked this post")
		}

		like := models.Like{PostID: postID, UserID: userID}
		if err := tx.Omit(clause.Associations).Create(&like).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("already liked this post")
			}
			return fmt.Errorf("create like: %w", err)
		}

		if err := adjustCounter(tx, &models.Post{}, postID, "likes_count", 1); err != nil {
			return fmt.Errorf("increment likes count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("post liked", zap.Stringer("post_id", postID), zap.Stringer("user_id", userID))
	return nil
}

// UnlikePost removes userID's like from postID.
func (s *EngagementService) UnlikePost(ctx context.Context, userID, postID uuid.UUID) error {
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return fmt.Errorf("delete like: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("not liked this post")
		}

		if err := adjustCounter(tx, &models.Post{}, postID, "likes_count", -1); err != nil {
			return fmt.Errorf("decrement likes count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("post unliked", zap.Stringer("post_id", postID), zap.Stringer("user_id", userID))
	return nil
}

// AddComment stores a comment on postID. A parent comment, when given,
// must exist.
func (s *EngagementService) AddComment(ctx context.Context, userID, postID uuid.UUID, in AddCommentInput) (*models.CommentView, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	comment := models.Comment{
		PostID:          postID,
		UserID:          userID,
		Content:         in.Content,
		ParentCommentID: in.ParentCommentID,
	}

	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		if in.ParentCommentID != nil {
			var n int64
			err := tx.Model(&models.Comment{}).
				Where("id = ?", *in.ParentCommentID).
				Count(&n).Error
			if err != nil {
				return fmt.Errorf("find parent comment: %w", err)
			}
			if n == 0 {
				return apperrors.NotFound("parent comment not found")
			}
		}

		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		if err := adjustCounter(tx, &models.Post{}, postID, "comments_count", 1); err != nil {
			return fmt.Errorf("increment comments count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("comment added", zap.Stringer("comment_id", comment.ID), zap.Stringer("post_id", postID))

	var loaded models.Comment
	if err := s.db.WithContext(ctx).Joins("User").Where("comments.id = ?", comment.ID).Take(&loaded).Error; err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	view := loaded.View()
	return &view, nil
}

// ListComments returns the top-level comments of postID, newest first.
// Replies are stored but not listed.
func (s *EngagementService) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.CommentView, bool, error) {
	limit, offset = normalizePage(limit, offset, DefaultPageSize, maxCommentPage)

	var comments []models.Comment
	q := s.db.WithContext(ctx).Joins("User").
		Where("comments.post_id = ? AND comments.parent_comment_id IS NULL", postID).
		Order("comments.created_at DESC").Order("comments.id DESC")
	if err := page(q, limit, offset).Find(&comments).Error; err != nil {
		return nil, false, fmt.Errorf("list comments: %w", err)
	}

	comments, hasMore := trimPage(comments, limit)
	out := make([]models.CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, comments[i].View())
	}
	return out, hasMore, nil
}

func postExists(tx *gorm.DB, postID uuid.UUID) error {
	var post models.Post
	err := tx.Select("id").Where("id = ?", postID).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("post not found")
	}
	if err != nil {
		return fmt.Errorf("find post: %w", err)
	}
	return nil
}
