// Package search provides the web lookup capability used by the venue stage.
// It speaks the SearxNG JSON API and treats any transport or decode problem
// as a single failure; retry policy belongs to the caller's fallback logic.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxResponseSize limits the search response body.
const maxResponseSize = 2 * 1024 * 1024 // 2MB

// Result is a single raw search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client is the lookup capability consumed by the pipeline.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// HTTPClient queries a SearxNG-compatible search API.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		h.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTPClient) {
		h.logger = logger
	}
}

// NewHTTPClient creates a search client for the given SearxNG base URL.
func NewHTTPClient(endpoint string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// searxResponse is the SearxNG JSON response format.
type searxResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs a single query and returns up to maxResults raw hits.
func (c *HTTPClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("search endpoint not configured")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	u.Path = "/search"
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	c.logger.Debug("Sending search request", "query", query, "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (status %d)", resp.StatusCode)
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
	}

	return results, nil
}
