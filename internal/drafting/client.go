// Package drafting produces email drafts for task reminders, either through an
// OpenAI-compatible chat completions endpoint or from local templates. It also
// summarizes meetings, extracts action items and translates text through the
// same endpoint.
package drafting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/example/ai-secretary/internal/logging"
)

const maxErrorBodyBytes = 2048

// ClientConfig configures access to a chat completions endpoint.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	// InitialBackoff is the first retry delay. Zero uses 250ms.
	InitialBackoff time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 250 * time.Millisecond
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completion returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrEmptyCompletion is returned when the endpoint answers without any content.
var ErrEmptyCompletion = errors.New("chat completion returned no content")

// Client calls a chat completions endpoint with throttling and retries.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient constructs a Client. httpClient may be nil.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("drafting: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("drafting: API key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}, nil
}

// Complete sends messages and returns the first choice's content. 429, 5xx
// and transport failures are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(completionRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = c.logger
	}
	logger = logger.With("component", "drafting.Client", "model", c.cfg.Model)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxElapsedTime = 0

	var (
		content string
		attempt int
	)
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		result, err := c.send(ctx, payload)
		if err == nil {
			content = result
			return nil
		}

		var statusErr *StatusError
		switch {
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		case errors.As(err, &statusErr) && !statusErr.Retryable():
			return backoff.Permanent(err)
		case errors.Is(err, ErrEmptyCompletion):
			return backoff.Permanent(err)
		}
		logger.WarnContext(ctx, "chat completion attempt failed", "attempt", attempt, "error", err)
		return err
	}

	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(operation, retry); err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) send(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return decoded.Choices[0].Message.Content, nil
}
