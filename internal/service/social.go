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
)

const (
	maxFollowPage = 100
	maxSuggest    = 50
)

// SocialService maintains the follow graph and the follower/following
// counters on users.
type SocialService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSocialService creates a new social service.
func NewSocialService(db *gorm.DB, log *zap.Logger) *SocialService {
	return &SocialService{db: db, log: log.Named("social")}
}

// Follow makes followerID follow targetID and bumps both counters.
func (s *SocialService) Follow(ctx context.Context, followerID, targetID uuid.UUID) error {
	if followerID == targetID {
		return apperrors.SelfFollow("cannot follow yourself")
	}

	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		var target int64
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).Count(&target).Error; err != nil {
			return fmt.Errorf("find target user: %w", err)
		}
		if target == 0 {
			return apperrors.NotFound("user not found")
		}

		exists, err := s.edgeExists(tx, followerID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("already following this user")
		}

		edge := models.Follow{FollowerID: followerID, FollowingID: targetID}
		if err := tx.Omit(clause.Associations).Create(&edge).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("already following this user")
			}
			return fmt.Errorf("create follow: %w", err)
		}

		if err := adjustCounter(tx, &models.User{}, followerID, "following_count", 1); err != nil {
			return fmt.Errorf("increment following count: %w", err)
		}
		if err := adjustCounter(tx, &models.User{}, targetID, "followers_count", 1); err != nil {
			return fmt.Errorf("increment followers count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("user followed", zap.Stringer("follower", followerID), zap.Stringer("following", targetID))
	return nil
}

// Unfollow removes the edge and decrements both counters.
func (s *SocialService) Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error {
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).Delete(&models.Follow{})
		if res.Error != nil {
			return fmt.Errorf("delete follow: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("not following this user")
		}

		if err := adjustCounter(tx, &models.User{}, followerID, "following_count", -1); err != nil {
			return fmt.Errorf("decrement following count: %w", err)
		}
		if err := adjustCounter(tx, &models.User{}, targetID, "followers_count", -1); err != nil {
			return fmt.Errorf("decrement followers count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug("user unfollowed", zap.Stringer("follower", followerID), zap.Stringer("following", targetID))
	return nil
}

// IsFollowing reports whether followerID follows targetID.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	return s.edgeExists(s.db.WithContext(ctx), followerID, targetID)
}

// ListFollowers returns the users following userID, newest edge first.
func (s *SocialService) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.FollowUser, bool, error) {
	limit, offset = normalizePage(limit, offset, DefaultPageSize, maxFollowPage)

	var edges []models.Follow
	q := s.db.WithContext(ctx).Joins("Follower").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").Order("follows.id DESC")
	if err := page(q, limit, offset).Find(&edges).Error; err != nil {
		return nil, false, fmt.Errorf("list followers: %w", err)
	}

	edges, hasMore := trimPage(edges, limit)
	out := make([]models.FollowUser, 0, len(edges))
	for i := range edges {
		out = append(out, edges[i].FollowerView())
	}
	return out, hasMore, nil
}

// ListFollowing returns the users userID follows, newest edge first.
func (s *SocialService) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.FollowUser, bool, error) {
	limit, offset = normalizePage(limit, offset, DefaultPageSize, maxFollowPage)

	var edges []models.Follow
	q := s.db.WithContext(ctx).Joins("Following").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").Order("follows.id DESC")
	if err := page(q, limit, offset).Find(&edges).Error; err != nil {
		return nil, false, fmt.Errorf("list following: %w", err)
	}

	edges, hasMore := trimPage(edges, limit)
	out := make([]models.FollowUser, 0, len(edges))
	for i := range edges {
		out = append(out, edges[i].FollowingView())
	}
	return out, hasMore, nil
}

// SuggestUsers returns the most-followed users that requesterID does not
// follow yet, excluding requesterID.
func (s *SocialService) SuggestUsers(ctx context.Context, requesterID uuid.UUID, limit int) ([]models.UserSummary, error) {
	limit, _ = normalizePage(limit, 0, DefaultSuggest, maxSuggest)

	followed := s.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", requesterID)

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id <> ?", requesterID).
		Where("id NOT IN (?)", followed).
		Order("followers_count DESC").Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("suggest users: %w", err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *SocialService) edgeExists(db *gorm.DB, followerID, targetID uuid.UUID) (bool, error) {
	var edge models.Follow
	err := db.Select("id").
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Take(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find follow: %w", err)
	}
	return true, nil
}
