package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/retry"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram rejects longer messages
	maxMessageLength = 4096
)

type Options struct {
	Token      string
	ChatID     string
	BaseURL    string
	HTTPClient *http.Client
	Retry      retry.RetryConfig
	Logger     *slog.Logger
}

// Client posts HTML messages to one chat or channel.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	retry   retry.RetryConfig
	log     *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
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
		token:   opts.Token,
		chatID:  opts.ChatID,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		retry:   opts.Retry,
		log:     opts.Logger,
	}
}

// SendMessage sends text with retry logic. Text longer than Telegram
// accepts is cut at the limit.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if r := []rune(text); len(r) > maxMessageLength {
		text = string(r[:maxMessageLength])
	}

	attempt := 0
	err := retry.WithRetry(ctx, c.retry, func() error {
		attempt++
		err := c.sendOnce(ctx, text)
		if err != nil {
			c.log.Warn("error send to telegram", "try", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("can't send message: %w", err)
	}
	c.log.Info("message sent to telegram", "try", attempt)
	return nil
}

func (c *Client) sendOnce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("error make JSON: %w", err))
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("telegram API error: status %d", resp.StatusCode))
	}
}
