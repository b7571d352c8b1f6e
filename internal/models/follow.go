package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge: Follower sees Following's public posts.
type Follow struct {
	Base
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follower_following;index" json:"followerId"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follower_following;index" json:"followingId"`
	Follower    User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// FollowUser is one row of a followers/following listing.
type FollowUser struct {
	ID             uuid.UUID `json:"id"`
	Name           *string   `json:"name"`
	Username       *string   `json:"username"`
	ProfileImage   *string   `json:"profileImage"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	IsVerified     bool      `json:"isVerified"`
	FollowedAt     time.Time `json:"createdAt"`
}

// UserSummary is the compact user card used by suggestions and search.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           *string   `json:"name"`
	Username       *string   `json:"username"`
	Bio            *string   `json:"bio"`
	ProfileImage   *string   `json:"profileImage"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	IsVerified     bool      `json:"isVerified"`
}

// Summary returns the compact card for u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Bio:            u.Bio,
		ProfileImage:   u.ProfileImage,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		IsVerified:     u.IsVerified,
	}
}

// FollowerView renders the follower side of f; Follower must be loaded.
func (f *Follow) FollowerView() FollowUser {
	return followUser(&f.Follower, f.CreatedAt)
}

// FollowingView renders the followed side of f; Following must be loaded.
func (f *Follow) FollowingView() FollowUser {
	return followUser(&f.Following, f.CreatedAt)
}

func followUser(u *User, at time.Time) FollowUser {
	return FollowUser{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfileImage:   u.ProfileImage,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		IsVerified:     u.IsVerified,
		FollowedAt:     at,
	}
}
