package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://slack.com/api"
	DefaultTimeout = 8 * time.Second
)

// Client posts messages through the Slack Web API.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a 200 response whose body says ok=false.
type APIError struct {
	Code     string
	Response map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api error: %s", e.Code)
}

// PostMessage calls chat.postMessage. payload is merged into the body after
// the channel; threadTS is optional.
func (c *Client) PostMessage(ctx context.Context, channel string, payload map[string]any, threadTS string) (map[string]any, error) {
	body := map[string]any{"channel": channel}
	for k, v := range payload {
		body[k] = v
	}
	if threadTS != "" {
		body["thread_ts"] = threadTS
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("slack: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode slack response: %w", err)
	}
	if ok, _ := data["ok"].(bool); !ok {
		code, _ := data["error"].(string)
		return nil, &APIError{Code: code, Response: data}
	}
	return data, nil
}
