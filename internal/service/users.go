package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

const maxUserSearchPage = 50

// UpdateProfileInput holds the profile fields a user may change. Nil
// fields are left untouched.
type UpdateProfileInput struct {
	Username     *string `json:"username" validate:"omitnil,min=3,max=50,username"`
	Name         *string `json:"name" validate:"omitnil,min=1,max=100"`
	Bio          *string `json:"bio" validate:"omitnil,max=500"`
	ProfileImage *string `json:"profileImage" validate:"omitnil,url"`
	Location     *string `json:"location" validate:"omitnil,max=100"`
	Website      *string `json:"website" validate:"omitnil,url"`
	ReadingGoal  *int    `json:"readingGoal" validate:"omitnil,gte=0,lte=9999"`
}

// SearchUsersInput is the user search contract.
type SearchUsersInput struct {
	Query  string `form:"query" validate:"required,min=1,max=100"`
	Limit  int    `form:"limit,default=20" validate:"gte=1,lte=50"`
	Offset int    `form:"offset,default=0" validate:"gte=0"`
}

// UserService reads and edits user profiles.
type UserService struct {
	db        *gorm.DB
	validator *validation.Validator
	log       *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB, v *validation.Validator, log *zap.Logger) *UserService {
	return &UserService{db: db, validator: v, log: log.Named("users")}
}

// GetProfile returns the owner's view of userID's profile.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := findUser(s.db.WithContext(ctx), "id = ?", userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{PublicProfile: user.PublicProfile(), Email: user.Email}, nil
}

// UpdateProfile applies the non-nil fields of in to userID's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.Profile, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if in.ProfileImage != nil {
		updates["profile_image"] = *in.ProfileImage
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Website != nil {
		updates["website"] = *in.Website
	}
	if in.ReadingGoal != nil {
		updates["reading_goal"] = *in.ReadingGoal
	}

	var user *models.User
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if in.Username != nil {
			var n int64
			err := tx.Model(&models.User{}).
				Where("username = ? AND id <> ?", *in.Username, userID).
				Count(&n).Error
			if err != nil {
				return fmt.Errorf("find username: %w", err)
			}
			if n > 0 {
				return apperrors.Conflict("username already taken")
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return apperrors.Conflict("username already taken")
				}
				return fmt.Errorf("update profile: %w", err)
			}
		}

		var err error
		user, err = findUser(tx, "id = ?", userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("profile updated", zap.Stringer("user_id", userID), zap.Int("fields", len(updates)))
	return &models.Profile{PublicProfile: user.PublicProfile(), Email: user.Email}, nil
}

// GetByUsername returns the public profile of username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.PublicProfile, error) {
	user, err := findUser(s.db.WithContext(ctx), "username = ?", username)
	if err != nil {
		return nil, err
	}
	profile := user.PublicProfile()
	return &profile, nil
}

// Search finds users whose username or name contains the query, ignoring
// case, ordered by follower count ascending.
func (s *UserService) Search(ctx context.Context, in SearchUsersInput) ([]models.UserSummary, bool, error) {
	in.Query = strings.TrimSpace(in.Query)
	if err := s.validator.Validate(in); err != nil {
		return nil, false, err
	}

	pattern := "%" + escapeLike(strings.ToLower(in.Query)) + "%"

	var users []models.User
	q := s.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("followers_count ASC").Order("id ASC")
	if err := page(q, in.Limit, in.Offset).Find(&users).Error; err != nil {
		return nil, false, fmt.Errorf("search users: %w", err)
	}

	users, hasMore := trimPage(users, in.Limit)
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, hasMore, nil
}

func findUser(db *gorm.DB, query string, args ...any) (*models.User, error) {
	var user models.User
	err := db.Where(query, args...).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
