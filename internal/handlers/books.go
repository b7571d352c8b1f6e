package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/middleware"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

const maxCoverSize = 5 << 20

type BookHandler struct {
	books *service.BookService
}

func NewBookHandler(books *service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// ListBooks pages through the local catalog
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query service.ListBooksInput
	if err := c.ShouldBindQuery(&query); err != nil {
		fail(c, apperrors.Validation("invalid query parameters").WithCause(err))
		return
	}

	books, hasMore, err := h.books.List(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books, "hasMore": hasMore})
}

// GetBook returns a single catalog book
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	book, err := h.books.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// SearchGoogle searches Google Books
func (h *BookHandler) SearchGoogle(c *gin.Context) {
	var query service.BookSearchInput
	if err := c.ShouldBindQuery(&query); err != nil {
		fail(c, apperrors.Validation("invalid query parameters").WithCause(err))
		return
	}

	books, err := h.books.SearchExternal(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// SearchISBN looks a book up in Google Books by ISBN
func (h *BookHandler) SearchISBN(c *gin.Context) {
	book, err := h.books.SearchByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": book})
}

// ImportGoogle adds a Google Books volume to the catalog (PROTECTED)
func (h *BookHandler) ImportGoogle(c *gin.Context) {
	var input service.ImportBookInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	book, created, err := h.books.Import(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		fail(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"book": book, "message": "Book already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// CreateCustom adds a manually entered book. Multipart requests may carry
// a coverImage file next to the book fields (PROTECTED)
func (h *BookHandler) CreateCustom(c *gin.Context) {
	var (
		input service.CreateBookInput
		cover *service.CoverUpload
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCoverSize+1<<20)
		form, err := customBookFromForm(c)
		if err != nil {
			fail(c, err)
			return
		}
		input = form

		file, err := c.FormFile("coverImage")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			fail(c, apperrors.Validation("invalid cover image").WithCause(err))
			return
		default:
			if file.Size > maxCoverSize {
				fail(c, apperrors.ValidationWithDetails("validation failed",
					validation.FieldErrors{"coverImage": "must not exceed 5MB"}))
				return
			}
			f, err := file.Open()
			if err != nil {
				fail(c, apperrors.Validation("invalid cover image").WithCause(err))
				return
			}
			defer f.Close()
			cover = &service.CoverUpload{
				Filename:    file.Filename,
				ContentType: file.Header.Get("Content-Type"),
				Size:        file.Size,
				Body:        f,
			}
		}
	} else if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	book, err := h.books.CreateCustom(c.Request.Context(), middleware.CurrentUserID(c), input, cover)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// customBookFromForm reads the book fields of a multipart request. List
// fields arrive as JSON-encoded strings.
func customBookFromForm(c *gin.Context) (service.CreateBookInput, error) {
	in := service.CreateBookInput{
		Title:         strings.TrimSpace(c.PostForm("title")),
		Publisher:     optionalForm(c, "publisher"),
		PublishedDate: optionalForm(c, "publishedDate"),
		Description:   optionalForm(c, "description"),
		ISBN10:        optionalForm(c, "isbn10"),
		ISBN13:        optionalForm(c, "isbn13"),
		Language:      c.PostForm("language"),
	}

	if raw := c.PostForm("authors"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Authors); err != nil {
			return in, apperrors.ValidationWithDetails("validation failed",
				validation.FieldErrors{"authors": "must be a JSON array of strings"})
		}
	}
	if raw := c.PostForm("categories"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Categories); err != nil {
			return in, apperrors.ValidationWithDetails("validation failed",
				validation.FieldErrors{"categories": "must be a JSON array of strings"})
		}
	}
	if raw := c.PostForm("pageCount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperrors.ValidationWithDetails("validation failed",
				validation.FieldErrors{"pageCount": "must be a number"})
		}
		in.PageCount = &n
	}
	return in, nil
}

func optionalForm(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return nil
	}
	return &v
}
