package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Email          string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string  `gorm:"not null" json:"-"`
	Name           *string `json:"name"`
	Username       *string `gorm:"size:50;uniqueIndex" json:"username"`
	Bio            *string `json:"bio"`
	ProfileImage   *string `json:"profileImage"`
	Location       *string `json:"location"`
	Website        *string `json:"website"`
	ReadingGoal    int     `gorm:"not null;default:0" json:"readingGoal"`
	BooksReadCount int     `gorm:"not null;default:0" json:"booksReadCount"`

	// Maintained by follow/unfollow only.
	FollowersCount int  `gorm:"not null;default:0;index" json:"followersCount"`
	FollowingCount int  `gorm:"not null;default:0" json:"followingCount"`
	IsVerified     bool `gorm:"not null;default:false" json:"isVerified"`
}

// Token is an issued bearer token. A token authenticates only while a row
// exists for it, it is not revoked and it has not expired.
type Token struct {
	Base
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	User      User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// PasswordReset is a single-use password reset token.
type PasswordReset struct {
	Base
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	User      User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

// UserSnapshot is the public author/commenter view embedded in feed items
// and comment lists.
type UserSnapshot struct {
	ID           uuid.UUID `json:"id"`
	Name         *string   `json:"name"`
	Username     *string   `json:"username"`
	ProfileImage *string   `json:"profileImage"`
	IsVerified   bool      `json:"isVerified"`
}

// Snapshot returns the public display fields of u.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
		IsVerified:   u.IsVerified,
	}
}

// PublicProfile is what other users see of a profile.
type PublicProfile struct {
	ID             uuid.UUID `json:"id"`
	Name           *string   `json:"name"`
	Username       *string   `json:"username"`
	Bio            *string   `json:"bio"`
	ProfileImage   *string   `json:"profileImage"`
	Location       *string   `json:"location"`
	Website        *string   `json:"website"`
	ReadingGoal    int       `json:"readingGoal"`
	BooksReadCount int       `json:"booksReadCount"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PublicProfile returns the profile fields safe to show other users.
func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Bio:            u.Bio,
		ProfileImage:   u.ProfileImage,
		Location:       u.Location,
		Website:        u.Website,
		ReadingGoal:    u.ReadingGoal,
		BooksReadCount: u.BooksReadCount,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
	}
}

// Profile is the owner's own view, which adds the email address.
type Profile struct {
	PublicProfile
	Email string `json:"email"`
}
