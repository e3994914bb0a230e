package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-haiku-4-5-20251001"

	defaultCallBudget = 60 // calls per minute
	defaultTimeout    = 30 * time.Second
)

// ErrBudgetExhausted is returned by Complete when the per-minute call
// budget is spent. The budget resets at the next minute boundary.
var ErrBudgetExhausted = errors.New("oracle call budget exhausted")

// ClientConfig configures an Anthropic Messages client. Zero fields take
// defaults; APIKey is required.
type ClientConfig struct {
	APIKey     string
	Model      string
	BaseURL    string        // overridable for tests
	CallBudget int           // max calls per minute
	Timeout    time.Duration // per-request
}

// Client calls the Anthropic Messages API on behalf of pookies and
// guardians, with a hard per-minute call budget so a crowded world cannot
// run away with API spend.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client

	mu     sync.Mutex
	minute time.Time // current budget window, truncated to the minute
	calls  int
}

// NewClient builds a client with default settings. The model may be
// overridden with the ORACLE_MODEL environment variable. Returns nil when
// apiKey is empty; a nil client is safe to use and reports !Enabled().
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{
		APIKey: apiKey,
		Model:  os.Getenv("ORACLE_MODEL"),
	})
}

// NewClientWithConfig builds a client, filling defaults for zero fields.
// Returns nil when cfg.APIKey is empty.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CallBudget == 0 {
		cfg.CallBudget = defaultCallBudget
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// spend takes one call from the current minute's budget.
func (c *Client) spend(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	window := now.Truncate(time.Minute)
	if !window.Equal(c.minute) {
		c.minute = window
		c.calls = 0
	}
	if c.calls >= c.cfg.CallBudget {
		wait := window.Add(time.Minute).Sub(now).Round(time.Second)
		return fmt.Errorf("%w (%d/min, resets in %s)", ErrBudgetExhausted, c.cfg.CallBudget, wait)
	}
	c.calls++
	return nil
}

// Complete sends a prompt to the model and returns the response text.
func (c *Client) Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("oracle client not configured")
	}
	if err := c.spend(time.Now()); err != nil {
		return "", err
	}

	req := request{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	slog.Debug("oracle call",
		"model", c.cfg.Model,
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
	)

	return apiResp.Content[0].Text, nil
}
