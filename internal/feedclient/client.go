// Package feedclient is the thin REST client the feed controller uses to
// reach the posts search endpoint. It attaches the session's bearer token
// and surfaces 401s through a hook so the app shell can drop the session.
package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/incomingclass/backend/internal/models"
)

const searchPath = "/api/v1/posts/search"

// ErrUnauthorized is returned when the API rejects the session token
var ErrUnauthorized = errors.New("unauthorized")

// Client calls the posts search endpoint. It implements feed.PostsAPI.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokenSource    func() string
	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource supplies the session token attached to each request.
// An empty return means the request goes out anonymously.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.tokenSource = fn }
}

// WithUnauthorizedHook is called whenever the API answers 401
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a posts search client for the given API base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPosts fetches one page of posts matching the filters
func (c *Client) SearchPosts(ctx context.Context, filters models.FeedFilters, page, limit int) (*models.FeedPage, error) {
	q := url.Values{}
	if filters.Query != "" {
		q.Set("q", filters.Query)
	}
	if filters.LookbackDays > 0 {
		q.Set("days", strconv.Itoa(filters.LookbackDays))
	}
	if filters.College != "" {
		q.Set("college", filters.College)
	}
	if filters.Substance != "" {
		q.Set("substance", filters.Substance)
	}
	for _, tag := range filters.PersonalityTags {
		q.Add("personality", tag)
	}
	if filters.Hometown != "" {
		q.Set("hometown", filters.Hometown)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}

	var envelope models.FeedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	if envelope.Status != "success" || envelope.Data == nil {
		if envelope.Error != nil {
			return nil, errors.New(*envelope.Error)
		}
		return nil, fmt.Errorf("posts search failed with status %d", resp.StatusCode)
	}

	return envelope.Data, nil
}
