package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/config"
)

const volumesJSON = `{
  "kind": "books#volumes",
  "totalItems": 1,
  "items": [{
    "id": "zyTCAlFPjgYC",
    "volumeInfo": {
      "title": "The Google Story",
      "authors": ["David A. Vise", "Mark Malseed"],
      "publisher": "Random House",
      "publishedDate": "2005-11-15",
      "industryIdentifiers": [
        {"type": "ISBN_10", "identifier": "055380457X"},
        {"type": "ISBN_13", "identifier": "9780553804577"}
      ],
      "imageLinks": {"thumbnail": "http://books.google.com/books/content?id=zyTCAlFPjgYC"},
      "categories": ["Business"],
      "pageCount": 207,
      "language": "en"
    }
  }]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GoogleBooksConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "google story", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "10", r.URL.Query().Get("startIndex"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesJSON))
	})

	results, err := client.Search(context.Background(), "google story", 5, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "zyTCAlFPjgYC", got.ID)
	assert.Equal(t, []string{"David A. Vise", "Mark Malseed"}, got.Authors)
	require.NotNil(t, got.ISBN10)
	assert.Equal(t, "055380457X", *got.ISBN10)
	require.NotNil(t, got.ISBN13)
	assert.Equal(t, "9780553804577", *got.ISBN13)
	require.NotNil(t, got.Thumbnail)
	assert.Equal(t, "https://books.google.com/books/content?id=zyTCAlFPjgYC", *got.Thumbnail)
	require.NotNil(t, got.PageCount)
	assert.Equal(t, 207, *got.PageCount)
	assert.Equal(t, "en", got.Language)
}

func TestClient_SearchNoItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind":"books#volumes","totalItems":0}`))
	})

	results, err := client.Search(context.Background(), "nothing", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestClient_SearchUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "q", 10, 0)
	assert.ErrorContains(t, err, "429")
}

func TestClient_SearchByISBN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780553804577", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(volumesJSON))
	})

	got, err := client.SearchByISBN(context.Background(), "9780553804577")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Google Story", got.Title)
}

func TestTransform_Defaults(t *testing.T) {
	got := Transform(Volume{ID: "x", VolumeInfo: VolumeInfo{Title: "Untitled"}})
	assert.Equal(t, []string{}, got.Authors)
	assert.Equal(t, []string{}, got.Categories)
	assert.Equal(t, "unknown", got.Language)
	assert.Nil(t, got.Thumbnail)
	assert.Nil(t, got.PageCount)
	assert.Nil(t, got.Publisher)
}
