package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/googlebooks"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

// BookSearcher looks books up in an external catalog.
type BookSearcher interface {
	Search(ctx context.Context, query string, maxResults, startIndex int) ([]googlebooks.Result, error)
	SearchByISBN(ctx context.Context, isbn string) (*googlebooks.Result, error)
}

// ObjectUploader stores uploaded files and returns their public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, size int64, body io.Reader, metadata map[string]string) (string, error)
	Delete(ctx context.Context, key string) error
}

// BookSearchInput is the external search contract.
type BookSearchInput struct {
	Query      string `form:"q" validate:"required,min=1"`
	MaxResults int    `form:"maxResults,default=10" validate:"gte=1,lte=40"`
	StartIndex int    `form:"startIndex,default=0" validate:"gte=0"`
}

// ListBooksInput is the local catalog listing contract.
type ListBooksInput struct {
	Search string `form:"search" validate:"max=200"`
	Limit  int    `form:"limit,default=20" validate:"gte=1,lte=100"`
	Offset int    `form:"offset,default=0" validate:"gte=0"`
}

// ImportBookInput is a book picked from a Google Books search.
type ImportBookInput struct {
	GoogleBooksID string   `json:"googleBooksId" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Authors       []string `json:"authors" validate:"min=1,dive,required"`
	Publisher     *string  `json:"publisher"`
	PublishedDate *string  `json:"publishedDate"`
	Description   *string  `json:"description"`
	ISBN10        *string  `json:"isbn10"`
	ISBN13        *string  `json:"isbn13"`
	Thumbnail     *string  `json:"thumbnail"`
	Categories    []string `json:"categories"`
	PageCount     *int     `json:"pageCount" validate:"omitnil,gte=0"`
	Language      string   `json:"language"`
}

// CreateBookInput is a manually entered book.
type CreateBookInput struct {
	Title         string   `json:"title" validate:"required"`
	Authors       []string `json:"authors" validate:"min=1,dive,required"`
	Publisher     *string  `json:"publisher"`
	PublishedDate *string  `json:"publishedDate"`
	Description   *string  `json:"description"`
	ISBN10        *string  `json:"isbn10"`
	ISBN13        *string  `json:"isbn13"`
	Categories    []string `json:"categories"`
	PageCount     *int     `json:"pageCount" validate:"omitnil,gt=0"`
	Language      string   `json:"language"`
}

// CoverUpload is an optional cover image sent with a custom book.
type CoverUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BookService manages the local book catalog.
type BookService struct {
	db        *gorm.DB
	searcher  BookSearcher
	uploader  ObjectUploader
	validator *validation.Validator
	log       *zap.Logger
}

// NewBookService creates a new book service. uploader may be nil when
// object storage is not configured.
func NewBookService(db *gorm.DB, searcher BookSearcher, uploader ObjectUploader, v *validation.Validator, log *zap.Logger) *BookService {
	return &BookService{db: db, searcher: searcher, uploader: uploader, validator: v, log: log.Named("books")}
}

// SearchExternal searches Google Books.
func (s *BookService) SearchExternal(ctx context.Context, in BookSearchInput) ([]googlebooks.Result, error) {
	in.Query = strings.TrimSpace(in.Query)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	results, err := s.searcher.Search(ctx, in.Query, in.MaxResults, in.StartIndex)
	if err != nil {
		return nil, apperrors.Internal("failed to search books", err)
	}
	return results, nil
}

// SearchByISBN looks a single book up in Google Books by ISBN.
func (s *BookService) SearchByISBN(ctx context.Context, isbn string) (*googlebooks.Result, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, apperrors.Validation("isbn is required")
	}

	result, err := s.searcher.SearchByISBN(ctx, isbn)
	if err != nil {
		return nil, apperrors.Internal("failed to search by isbn", err)
	}
	if result == nil {
		return nil, apperrors.NotFound("book not found")
	}
	return result, nil
}

// Import adds a Google Books volume to the catalog. If a book with the same
// Google Books id is already stored it is returned as is and created is
// false.
func (s *BookService) Import(ctx context.Context, userID uuid.UUID, in ImportBookInput) (book *models.Book, created bool, err error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, false, err
	}

	db := s.db.WithContext(ctx)

	existing, err := s.findByGoogleID(db, in.GoogleBooksID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	googleID := in.GoogleBooksID
	b := models.Book{
		GoogleBooksID: &googleID,
		Title:         in.Title,
		Authors:       nonNil(in.Authors),
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		Description:   in.Description,
		ISBN10:        in.ISBN10,
		ISBN13:        in.ISBN13,
		Thumbnail:     in.Thumbnail,
		Categories:    nonNil(in.Categories),
		PageCount:     in.PageCount,
		Language:      languageOrUnknown(in.Language),
		CreatedBy:     &userID,
	}
	if err := db.Omit(clause.Associations).Create(&b).Error; err != nil {
		if database.IsUniqueViolation(err) {
			existing, findErr := s.findByGoogleID(db, in.GoogleBooksID)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("create book: %w", err)
	}

	s.log.Info("book imported", zap.Stringer("book_id", b.ID), zap.String("google_books_id", googleID))
	return &b, true, nil
}

// CreateCustom adds a manually entered book, uploading cover when given.
func (s *BookService) CreateCustom(ctx context.Context, userID uuid.UUID, in CreateBookInput, cover *CoverUpload) (*models.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	b := models.Book{
		Title:         in.Title,
		Authors:       in.Authors,
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		Description:   in.Description,
		ISBN10:        in.ISBN10,
		ISBN13:        in.ISBN13,
		Categories:    nonNil(in.Categories),
		PageCount:     in.PageCount,
		Language:      languageOrUnknown(in.Language),
		CreatedBy:     &userID,
	}

	var coverKey string
	if cover != nil && cover.Size > 0 {
		if !strings.HasPrefix(cover.ContentType, "image/") {
			return nil, apperrors.ValidationWithDetails("validation failed",
				validation.FieldErrors{"coverImage": "must be an image file"})
		}
		if s.uploader == nil {
			return nil, apperrors.ServerConfig("object storage is not configured")
		}

		key, err := objectKey("covers", cover.Filename)
		if err != nil {
			return nil, err
		}
		coverKey = key
		coverURL, err := s.uploader.Upload(ctx, key, cover.ContentType, cover.Size, cover.Body, map[string]string{
			"book-title":  in.Title,
			"uploaded-by": userID.String(),
		})
		if err != nil {
			return nil, apperrors.Internal("failed to upload cover image", err)
		}
		b.CoverImage = &coverURL
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&b).Error; err != nil {
		if coverKey != "" {
			if delErr := s.uploader.Delete(ctx, coverKey); delErr != nil {
				s.log.Warn("failed to remove orphaned cover", zap.String("key", coverKey), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.log.Info("custom book created", zap.Stringer("book_id", b.ID), zap.Stringer("user_id", userID))
	return &b, nil
}

// List pages through the local catalog, optionally filtered by a case
// insensitive match on title, authors or publisher.
func (s *BookService) List(ctx context.Context, in ListBooksInput) ([]models.Book, bool, error) {
	in.Search = strings.TrimSpace(in.Search)
	if err := s.validator.Validate(in); err != nil {
		return nil, false, err
	}

	q := s.db.WithContext(ctx).Model(&models.Book{})
	if in.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(in.Search)) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(CAST(authors AS TEXT)) LIKE ? ESCAPE '\\' OR LOWER(publisher) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}
	q = q.Order("created_at ASC").Order("id ASC")

	var books []models.Book
	if err := page(q, in.Limit, in.Offset).Find(&books).Error; err != nil {
		return nil, false, fmt.Errorf("list books: %w", err)
	}

	books, hasMore := trimPage(books, in.Limit)
	return books, hasMore, nil
}

// Get returns the book with id.
func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var b models.Book
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

func (s *BookService) findByGoogleID(db *gorm.DB, googleID string) (*models.Book, error) {
	var b models.Book
	err := db.Where("google_books_id = ?", googleID).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book by google id: %w", err)
	}
	return &b, nil
}

// objectKey builds a collision-free storage key under prefix that keeps
// the extension of filename.
func objectKey(prefix, filename string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return prefix + "/" + id + ext, nil
}

func languageOrUnknown(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return "unknown"
	}
	return lang
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
