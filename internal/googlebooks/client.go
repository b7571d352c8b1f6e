// Package googlebooks is a small client for the Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/config"
)

// Volume is a book as returned by the volumes endpoint.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the bibliographic fields of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
	Categories          []string             `json:"categories"`
	PageCount           int                  `json:"pageCount"`
	Language            string               `json:"language"`
}

// IndustryIdentifier is an ISBN or other identifier of a volume.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks holds cover image URLs.
type ImageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

type volumesResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Result is a search hit in the shape clients import books from.
type Result struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     *string  `json:"publisher,omitempty"`
	PublishedDate *string  `json:"publishedDate,omitempty"`
	Description   *string  `json:"description,omitempty"`
	ISBN10        *string  `json:"isbn10,omitempty"`
	ISBN13        *string  `json:"isbn13,omitempty"`
	Thumbnail     *string  `json:"thumbnail,omitempty"`
	Categories    []string `json:"categories"`
	PageCount     *int     `json:"pageCount,omitempty"`
	Language      string   `json:"language"`
}

// Client queries the Google Books API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a client from cfg.
func NewClient(cfg config.GoogleBooksConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Named("googlebooks"),
	}
}

// Search runs a volumes query.
func (c *Client) Search(ctx context.Context, query string, maxResults, startIndex int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startIndex", strconv.Itoa(startIndex))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("google books error", zap.Int("status", resp.StatusCode), zap.String("query", query))
		return nil, fmt.Errorf("google books api error: %d", resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}

	results := make([]Result, 0, len(body.Items))
	for _, v := range body.Items {
		results = append(results, Transform(v))
	}
	return results, nil
}

// SearchByISBN returns the first volume matching isbn, or nil.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) (*Result, error) {
	results, err := c.Search(ctx, "isbn:"+isbn, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Transform flattens a volume into a Result. Thumbnails are upgraded to
// https and a missing language becomes "unknown".
func Transform(v Volume) Result {
	info := v.VolumeInfo
	r := Result{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       nonNil(info.Authors),
		Publisher:     optional(info.Publisher),
		PublishedDate: optional(info.PublishedDate),
		Description:   optional(info.Description),
		Categories:    nonNil(info.Categories),
		Language:      info.Language,
	}
	if r.Language == "" {
		r.Language = "unknown"
	}
	if info.PageCount > 0 {
		pc := info.PageCount
		r.PageCount = &pc
	}
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			if r.ISBN10 == nil {
				r.ISBN10 = optional(id.Identifier)
			}
		case "ISBN_13":
			if r.ISBN13 == nil {
				r.ISBN13 = optional(id.Identifier)
			}
		}
	}
	if info.ImageLinks != nil && info.ImageLinks.Thumbnail != "" {
		thumb := strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1)
		r.Thumbnail = &thumb
	}
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
