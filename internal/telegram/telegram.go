package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/retry"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// MaxMessageLen stays under Telegram's 4096 character limit.
	MaxMessageLen = 4000
)

// Client sends HTML messages through the Bot API.
type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client

	MaxRetries int
	Sleep      retry.Sleeper
}

func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    defaultBaseURL,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 3,
		Sleep:      retry.Sleep,
	}
}

// SendMessage sends text to chatID, split into parts that fit one Telegram
// message. Each part is retried with 2^attempt second backoff.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	parts := Split(text, MaxMessageLen)
	for i, part := range parts {
		err := retry.WithRetry(ctx, retry.RetryConfig{
			MaxAttempts: c.MaxRetries,
			Delay:       time.Second,
			Backoff:     true,
			Sleep:       c.Sleep,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				logger.Warn("error sending to Telegram", "attempt", attempt, "max", c.MaxRetries, "wait", wait, "error", err)
			},
		}, func() error {
			return c.sendMessageOnce(ctx, chatID, part)
		})
		if err != nil {
			return fmt.Errorf("can't send message part %d/%d: %w", i+1, len(parts), err)
		}
	}
	logger.Info("message sent to Telegram", "parts", len(parts))
	return nil
}

func (c *Client) sendMessageOnce(ctx context.Context, chatID, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.Token)

	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Split cuts text into chunks of at most max runes, preferring line breaks.
func Split(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimRight(cur.String(), "\n"); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > max {
			flush()
		}
		for n > max {
			r := []rune(line)
			parts = append(parts, string(r[:max]))
			line = string(r[max:])
			n -= max
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
