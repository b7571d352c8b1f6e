package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/apperrors"
	"github.com/emilythestrangee/readshelf/backend/internal/database/dbtest"
	"github.com/emilythestrangee/readshelf/backend/internal/googlebooks"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

type fakeSearcher struct {
	results []googlebooks.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _, _ int) ([]googlebooks.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeSearcher) SearchByISBN(_ context.Context, isbn string) (*googlebooks.Result, error) {
	f.queries = append(f.queries, "isbn:"+isbn)
	if f.err != nil || len(f.results) == 0 {
		return nil, f.err
	}
	return &f.results[0], nil
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	metadata    map[string]string
	deleted     []string
}

func (f *fakeUploader) Upload(_ context.Context, key, contentType string, _ int64, body io.Reader, metadata map[string]string) (string, error) {
	f.key = key
	f.contentType = contentType
	f.metadata = metadata
	b, err := io.ReadAll(body)
	f.body = b
	return "https://cdn.example.com/book-covers/" + key, err
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestBookService_SearchExternal(t *testing.T) {
	db := dbtest.New(t)
	searcher := &fakeSearcher{results: []googlebooks.Result{{ID: "g1", Title: "Dune"}}}
	svc := NewBookService(db, searcher, nil, validation.New(), zap.NewNop())
	ctx := context.Background()

	results, err := svc.SearchExternal(ctx, BookSearchInput{Query: " dune ", MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"dune"}, searcher.queries)

	_, err = svc.SearchExternal(ctx, BookSearchInput{Query: "dune", MaxResults: 41})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	searcher.err = errors.New("upstream down")
	_, err = svc.SearchExternal(ctx, BookSearchInput{Query: "dune", MaxResults: 10})
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestBookService_SearchByISBN(t *testing.T) {
	db := dbtest.New(t)
	searcher := &fakeSearcher{}
	svc := NewBookService(db, searcher, nil, validation.New(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.SearchByISBN(ctx, "978-0-441-17271-9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, []string{"isbn:9780441172719"}, searcher.queries)

	searcher.results = []googlebooks.Result{{ID: "g1", Title: "Dune"}}
	got, err := svc.SearchByISBN(ctx, "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}

func TestBookService_ImportIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
	ctx := context.Background()

	user := createUser(t, db, "importer")
	in := ImportBookInput{
		GoogleBooksID: "B1gZ0",
		Title:         "Dune",
		Authors:       []string{"Frank Herbert"},
		ISBN13:        strPtr("9780441172719"),
	}

	book, created, err := svc.Import(ctx, user.ID, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "unknown", book.Language)
	assert.Equal(t, []string{}, book.Categories)
	require.NotNil(t, book.CreatedBy)
	assert.Equal(t, user.ID, *book.CreatedBy)

	in.Title = "Dune (Deluxe Edition)"
	again, created, err := svc.Import(ctx, user.ID, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, book.ID, again.ID)
	assert.Equal(t, "Dune", again.Title, "existing rows are not refreshed")
	assert.Equal(t, int64(1), countRows(t, db, &models.Book{}, "1 = 1"))
}

func TestBookService_ImportRequiresAuthors(t *testing.T) {
	db := dbtest.New(t)
	svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
	ctx := context.Background()
	user := createUser(t, db, "importer")

	for name, authors := range map[string][]string{
		"empty list":   {},
		"nil list":     nil,
		"blank author": {""},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Import(ctx, user.ID, ImportBookInput{GoogleBooksID: "vol-" + name, Title: "Nameless", Authors: authors})
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	assert.Zero(t, countRows(t, db, &models.Book{}, "1 = 1"))
}

func TestBookService_CreateCustom(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	user := createUser(t, db, "writer")

	t.Run("without cover", func(t *testing.T) {
		svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
		book, err := svc.CreateCustom(ctx, user.ID, CreateBookInput{
			Title:     "My Zine",
			Authors:   []string{"Writer"},
			PageCount: intPtr(24),
		}, nil)
		require.NoError(t, err)
		assert.Nil(t, book.CoverImage)
		assert.Nil(t, book.GoogleBooksID)
	})

	t.Run("requires an author", func(t *testing.T) {
		svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
		_, err := svc.CreateCustom(ctx, user.ID, CreateBookInput{Title: "Anon", Authors: []string{}}, nil)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("uploads cover", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc := NewBookService(db, &fakeSearcher{}, uploader, validation.New(), zap.NewNop())
		cover := &CoverUpload{Filename: "cover.PNG", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte("png!"))}

		book, err := svc.CreateCustom(ctx, user.ID, CreateBookInput{Title: "Illustrated", Authors: []string{"Writer"}}, cover)
		require.NoError(t, err)
		require.NotNil(t, book.CoverImage)
		assert.True(t, strings.HasPrefix(uploader.key, "covers/"))
		assert.True(t, strings.HasSuffix(uploader.key, ".png"))
		assert.Equal(t, "https://cdn.example.com/book-covers/"+uploader.key, *book.CoverImage)
		assert.Equal(t, []byte("png!"), uploader.body)
		assert.Equal(t, user.ID.String(), uploader.metadata["uploaded-by"])
	})

	t.Run("removes cover when insert fails", func(t *testing.T) {
		uploader := &fakeUploader{}
		svc := NewBookService(db, &fakeSearcher{}, uploader, validation.New(), zap.NewNop())
		cover := &CoverUpload{Filename: "c.png", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte("png!"))}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.CreateCustom(cancelled, user.ID, CreateBookInput{Title: "Lost", Authors: []string{"Writer"}}, cover)
		require.Error(t, err)
		assert.Equal(t, []string{uploader.key}, uploader.deleted)
	})

	t.Run("rejects non image cover", func(t *testing.T) {
		svc := NewBookService(db, &fakeSearcher{}, &fakeUploader{}, validation.New(), zap.NewNop())
		cover := &CoverUpload{Filename: "cover.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("pdf")}
		_, err := svc.CreateCustom(ctx, user.ID, CreateBookInput{Title: "Doc", Authors: []string{"Writer"}}, cover)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("cover without storage", func(t *testing.T) {
		svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
		cover := &CoverUpload{Filename: "c.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("jpg")}
		_, err := svc.CreateCustom(ctx, user.ID, CreateBookInput{Title: "Doc", Authors: []string{"Writer"}}, cover)
		assert.ErrorIs(t, err, apperrors.ErrServerConfig)
	})
}

func TestBookService_ListAndGet(t *testing.T) {
	db := dbtest.New(t)
	svc := NewBookService(db, &fakeSearcher{}, nil, validation.New(), zap.NewNop())
	ctx := context.Background()

	createBook(t, db, "The Left Hand of Darkness")
	createBook(t, db, "A Wizard of Earthsea")
	dune := models.Book{Title: "Dune", Authors: []string{"Frank Herbert"}, Categories: []string{}, Publisher: strPtr("Chilton")}
	require.NoError(t, db.Create(&dune).Error)

	all, hasMore, err := svc.List(ctx, ListBooksInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, hasMore)

	byAuthor, _, err := svc.List(ctx, ListBooksInput{Search: "le guin", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byTitle, _, err := svc.List(ctx, ListBooksInput{Search: "DUNE", Limit: 20})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, dune.ID, byTitle[0].ID)

	byPublisher, _, err := svc.List(ctx, ListBooksInput{Search: "chilton", Limit: 20})
	require.NoError(t, err)
	assert.Len(t, byPublisher, 1)

	got, err := svc.Get(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
