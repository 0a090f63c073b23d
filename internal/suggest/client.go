// Package suggest asks an external service for effect settings that match
// a free-text description.
//
// The service receives the prompt together with the current snapshot and
// answers with a settings document in the effectchain JSON schema. Fields
// the answer leaves out keep their current values.
package suggest

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

	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
)

// ErrNotConfigured is returned by New when no endpoint is set.
var ErrNotConfigured = errors.New("suggest: no endpoint configured")

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 1 << 20

// Config is the explicit client configuration.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("suggestion service rejected the API key (status %d)", e.StatusCode)
	case http.StatusTooManyRequests:
		return "suggestion service rate limit exceeded"
	default:
		return fmt.Sprintf("suggestion service returned status %d: %s", e.StatusCode, e.Body)
	}
}

// Client talks to the suggestion service.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a client from cfg. A zero Timeout means 30 seconds.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type suggestRequest struct {
	Model   string               `json:"model,omitempty"`
	Prompt  string               `json:"prompt"`
	Current effectchain.Settings `json:"current"`
	Effects []effectchain.Kind   `json:"effects"`
}

// Suggest returns current updated with the service's answer to prompt. The
// answer is clamped into valid ranges; its reasoning text, if any, is kept
// in Settings.Reasoning.
func (c *Client) Suggest(ctx context.Context, prompt string, current effectchain.Settings) (effectchain.Settings, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return effectchain.Settings{}, errors.New("suggest: empty prompt")
	}

	body, err := json.Marshal(suggestRequest{
		Model:   c.model,
		Prompt:  prompt,
		Current: current,
		Effects: effectchain.Order,
	})
	if err != nil {
		return effectchain.Settings{}, fmt.Errorf("marshal suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return effectchain.Settings{}, fmt.Errorf("create suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return effectchain.Settings{}, fmt.Errorf("suggestion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return effectchain.Settings{}, fmt.Errorf("read suggestion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return effectchain.Settings{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	next := current
	next.Reasoning = ""
	if err := next.Merge(data); err != nil {
		return effectchain.Settings{}, err
	}
	return next, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }
