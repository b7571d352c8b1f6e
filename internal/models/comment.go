package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a comment on a post. ParentCommentID references another
// comment for replies; it is a lookup, not ownership.
type Comment struct {
	Base
	PostID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"postId"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	Post            Post       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User            User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index" json:"parentCommentId"`
	Parent          *Comment   `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"-"`
	LikesCount      int        `gorm:"not null;default:0" json:"likesCount"`
}

// CommentView is a comment with its author snapshot.
type CommentView struct {
	ID              uuid.UUID    `json:"id"`
	PostID          uuid.UUID    `json:"postId"`
	UserID          uuid.UUID    `json:"userId"`
	Content         string       `json:"content"`
	ParentCommentID *uuid.UUID   `json:"parentCommentId"`
	LikesCount      int          `json:"likesCount"`
	CreatedAt       time.Time    `json:"createdAt"`
	User            UserSnapshot `json:"user"`
}

// View renders c with its loaded User association.
func (c *Comment) View() CommentView {
	return CommentView{
		ID:              c.ID,
		PostID:          c.PostID,
		UserID:          c.UserID,
		Content:         c.Content,
		ParentCommentID: c.ParentCommentID,
		LikesCount:      c.LikesCount,
		CreatedAt:       c.CreatedAt,
		User:            c.User.Snapshot(),
	}
}
