package models

import (
	"github.com/google/uuid"
)

type Book struct {
	Base
	GoogleBooksID *string    `gorm:"uniqueIndex" json:"googleBooksId"`
	Title         string     `gorm:"not null" json:"title"`
	Authors       []string   `gorm:"type:json;serializer:json;not null" json:"authors"`
	Publisher     *string    `json:"publisher"`
	PublishedDate *string    `json:"publishedDate"`
	Description   *string    `json:"description"`
	ISBN10        *string    `gorm:"column:isbn10" json:"isbn10"`
	ISBN13        *string    `gorm:"column:isbn13" json:"isbn13"`
	Thumbnail     *string    `json:"thumbnail"`
	CoverImage    *string    `json:"coverImage"`
	Categories    []string   `gorm:"type:json;serializer:json;not null" json:"categories"`
	PageCount     *int       `json:"pageCount"`
	Language      string     `gorm:"not null;default:unknown" json:"language"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid;index" json:"createdBy"`
	Creator       *User      `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL" json:"-"`
}

// BookSnapshot is the book view embedded in feed items.
type BookSnapshot struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Thumbnail *string   `json:"thumbnail"`
}

// Snapshot returns the display fields of b.
func (b *Book) Snapshot() BookSnapshot {
	authors := b.Authors
	if authors == nil {
		authors = []string{}
	}
	return BookSnapshot{ID: b.ID, Title: b.Title, Authors: authors, Thumbnail: b.Thumbnail}
}
