package models

import (
	"time"

	"github.com/google/uuid"
)

// PostType is the closed set of post kinds.
type PostType string

const (
	PostTypeQuote          PostType = "quote"
	PostTypeProgress       PostType = "progress"
	PostTypeReview         PostType = "review"
	PostTypeThought        PostType = "thought"
	PostTypeRecommendation PostType = "recommendation"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeQuote, PostTypeProgress, PostTypeReview, PostTypeThought, PostTypeRecommendation:
		return true
	}
	return false
}

type Post struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	PostType PostType  `gorm:"not null" json:"postType"`

	BookID             *uuid.UUID `gorm:"type:uuid;index" json:"bookId"`
	Book               *Book      `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	QuoteText          *string    `json:"quoteText"`
	PageNumber         *int       `json:"pageNumber"`
	ProgressPercentage *int       `json:"progressPercentage"`
	Rating             *int       `json:"rating"`
	ImageURL           *string    `json:"imageUrl"`
	IsPrivate          bool       `gorm:"not null;default:false;index" json:"isPrivate"`

	// Maintained by the engagement ledger only.
	LikesCount    int `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount int `gorm:"not null;default:0" json:"commentsCount"`
	RepostsCount  int `gorm:"not null;default:0" json:"repostsCount"`
}

// FeedPost is a post as rendered in a feed, with the author and book read
// at query time.
type FeedPost struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"userId"`
	Content            string        `json:"content"`
	PostType           PostType      `json:"postType"`
	BookID             *uuid.UUID    `json:"bookId"`
	QuoteText          *string       `json:"quoteText"`
	PageNumber         *int          `json:"pageNumber"`
	ProgressPercentage *int          `json:"progressPercentage"`
	Rating             *int          `json:"rating"`
	ImageURL           *string       `json:"imageUrl"`
	IsPrivate          bool          `json:"isPrivate"`
	LikesCount         int           `json:"likesCount"`
	CommentsCount      int           `json:"commentsCount"`
	RepostsCount       int           `json:"repostsCount"`
	CreatedAt          time.Time     `json:"createdAt"`
	User               UserSnapshot  `json:"user"`
	Book               *BookSnapshot `json:"book"`
}

// FeedView renders p with its loaded User and Book associations.
func (p *Post) FeedView() FeedPost {
	fp := FeedPost{
		ID:                 p.ID,
		UserID:             p.UserID,
		Content:            p.Content,
		PostType:           p.PostType,
		BookID:             p.BookID,
		QuoteText:          p.QuoteText,
		PageNumber:         p.PageNumber,
		ProgressPercentage: p.ProgressPercentage,
		Rating:             p.Rating,
		ImageURL:           p.ImageURL,
		IsPrivate:          p.IsPrivate,
		LikesCount:         p.LikesCount,
		CommentsCount:      p.CommentsCount,
		RepostsCount:       p.RepostsCount,
		CreatedAt:          p.CreatedAt,
		User:               p.User.Snapshot(),
	}
	if p.Book != nil && p.Book.ID != uuid.Nil {
		snap := p.Book.Snapshot()
		fp.Book = &snap
	}
	return fp
}

// Like records that a user liked a post. At most one per (post, user).
type Like struct {
	Base
	PostID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_user" json:"postId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_user;index" json:"userId"`
	Post   Post      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User   User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
