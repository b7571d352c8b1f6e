package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/readshelf/backend/internal/models"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := models.User{
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         strPtr(username),
		Username:     strPtr(username),
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func reloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("id = ?", id).Take(&u).Error)
	return u
}

func reloadPost(t *testing.T, db *gorm.DB, id uuid.UUID) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.Where("id = ?", id).Take(&p).Error)
	return p
}

type postOpt func(*models.Post)

func private() postOpt { return func(p *models.Post) { p.IsPrivate = true } }

func at(ts time.Time) postOpt { return func(p *models.Post) { p.CreatedAt = ts } }

func withBook(id uuid.UUID) postOpt { return func(p *models.Post) { p.BookID = &id } }

func createPost(t *testing.T, db *gorm.DB, userID uuid.UUID, opts ...postOpt) *models.Post {
	t.Helper()
	p := models.Post{
		UserID:   userID,
		Content:  "reading something good",
		PostType: models.PostTypeThought,
	}
	for _, opt := range opts {
		opt(&p)
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&p).Error)
	return &p
}

func createBook(t *testing.T, db *gorm.DB, title string) *models.Book {
	t.Helper()
	b := models.Book{
		Title:      title,
		Authors:    []string{"Ursula K. Le Guin"},
		Categories: []string{},
		Language:   "en",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&b).Error)
	return &b
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
