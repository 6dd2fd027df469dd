// Package ai talks to an OpenAI-compatible chat completions endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/seopress/internal/apperr"
)

// DefaultSystemPrompt primes the model as an affiliate content writer.
const DefaultSystemPrompt = "You are an expert SEO content writer and affiliate marketer. " +
	"Create engaging, informative blog posts that rank well in search engines and naturally " +
	"incorporate affiliate links. Return ONLY clean HTML content without any markdown code " +
	"blocks or extra formatting."

// Backend produces a completion for a prompt.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is returned when the endpoint answers with an HTTP error status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai: endpoint returned %d: %s", e.Code, e.Body)
}

// Unwrap classifies every status error as a backend error.
func (e *StatusError) Unwrap() error { return apperr.ErrAIBackend }

// ClientConfig configures an OpenAIClient.
type ClientConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// OpenAIClient implements Backend over net/http.
type OpenAIClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

var _ Backend = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client. Per-request deadlines come from the caller's
// context; the http.Client timeout is only a backstop.
func NewOpenAIClient(cfg ClientConfig, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &OpenAIClient{cfg: cfg, httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as the user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" || c.cfg.Model == "" {
		return "", fmt.Errorf("ai: client misconfigured: %w", apperr.ErrAIBackend)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("ai: request: %w", ctxErr)
		}
		return "", fmt.Errorf("ai: request: %w: %w", apperr.ErrAIBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("ai: decode response: %w: %w", apperr.ErrAIBackend, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai: empty choices: %w", apperr.ErrAIBackend)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("ai: empty completion: %w", apperr.ErrAIBackend)
	}
	return text, nil
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
