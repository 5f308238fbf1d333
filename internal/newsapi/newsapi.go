// Package newsapi fetches raw articles from a NewsAPI-compatible provider.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/ratelimit"
	"github.com/deusflow/headlines/internal/retry"
)

// RemovedMarker is what the provider puts in place of withdrawn articles.
const RemovedMarker = "[Removed]"

const removedURL = "https://removed.com"

// APIError is a non-retryable failure reported by the provider.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi: status %d", e.StatusCode)
}

type Query struct {
	Category string
	Country  string
	Search   string
	Page     int
	PageSize int
}

type Result struct {
	TotalResults int
	Articles     []news.RawArticle
}

type response struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []news.RawArticle `json:"articles"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
}

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Quota      *ratelimit.Quota
	Retry      retry.RetryConfig
	Logger     *slog.Logger
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	quota   *ratelimit.Quota
	retry   retry.RetryConfig
	log     *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    opts.HTTPClient,
		quota:   opts.Quota,
		retry:   opts.Retry,
		log:     opts.Logger,
	}
}

// TopHeadlines fetches the front page, optionally narrowed to a category.
func (c *Client) TopHeadlines(ctx context.Context, q Query) (Result, error) {
	params := url.Values{}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	return c.get(ctx, "/top-headlines", params, q)
}

// Everything runs a free-text search across all indexed articles.
func (c *Client) Everything(ctx context.Context, q Query) (Result, error) {
	if strings.TrimSpace(q.Search) == "" {
		return Result{}, fmt.Errorf("newsapi: search query is required")
	}
	params := url.Values{}
	params.Set("q", q.Search)
	params.Set("sortBy", "publishedAt")
	return c.get(ctx, "/everything", params, q)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, q Query) (Result, error) {
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	if c.quota != nil {
		if err := c.quota.Use(); err != nil {
			return Result{}, err
		}
	}

	endpoint := c.baseURL + path + "?" + params.Encode()
	var body response
	err := retry.WithRetry(ctx, c.retry, func() error {
		var err error
		body, err = c.fetch(ctx, endpoint)
		if err != nil {
			c.log.Warn("newsapi request failed", "path", path, "error", err)
		}
		return err
	})
	if err != nil {
		return Result{}, err
	}

	c.log.Debug("newsapi response", "path", path, "total", body.TotalResults, "articles", len(body.Articles))
	return Result{TotalResults: body.TotalResults, Articles: body.Articles}, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return response{}, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}

	var body response
	decodeErr := json.Unmarshal(data, &body)

	if resp.StatusCode >= 500 {
		return response{}, fmt.Errorf("newsapi: server error %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || body.Status == "error" {
		return response{}, retry.Permanent(&APIError{
			StatusCode: resp.StatusCode,
			Code:       body.Code,
			Message:    body.Message,
		})
	}
	if decodeErr != nil {
		return response{}, retry.Permanent(fmt.Errorf("decode response: %w", decodeErr))
	}
	return body, nil
}

// FilterRemoved drops untitled articles and withdrawn placeholders. The
// pipeline expects its input to be clean.
func FilterRemoved(articles []news.RawArticle) []news.RawArticle {
	out := make([]news.RawArticle, 0, len(articles))
	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || title == RemovedMarker || a.URL == removedURL {
			continue
		}
		if a.Description == RemovedMarker {
			a.Description = ""
		}
		if a.Source != nil && a.Source.Name == RemovedMarker {
			continue
		}
		out = append(out, a)
	}
	return out
}
