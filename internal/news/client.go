// Package news fetches recent Japanese articles from the World News API.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultBaseURL = "https://api.worldnewsapi.com"
	DefaultTTL     = 15 * time.Minute
)

// Categories are the article categories requested from the provider.
var Categories = []string{"business", "technology", "entertainment", "science", "education"}

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("news provider not configured")

// Article is one news item.
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
}

type searchResponse struct {
	News []Article `json:"news"`
}

// Client queries search-news and caches the result list.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, []Article]
}

// NewClient returns a Client. An empty baseURL selects DefaultBaseURL and a
// non-positive ttl DefaultTTL.
func NewClient(apiKey, baseURL string, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: expirable.NewLRU[string, []Article](16, nil, ttl),
	}
}

// Search returns the latest Japanese-language articles from Japanese
// sources in Categories.
func (c *Client) Search(ctx context.Context) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("source-country", "jp")
	q.Set("language", "ja")
	q.Set("categories", strings.Join(Categories, ","))
	key := q.Encode()

	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search-news?"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("world news api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("world news api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.News == nil {
		out.News = []Article{}
	}
	c.cache.Add(key, out.News)
	return out.News, nil
}

// Purge drops every cached result.
func (c *Client) Purge() {
	c.cache.Purge()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
