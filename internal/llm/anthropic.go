package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// #region config

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicModel   = "claude-sonnet-4-5"
	anthropicVersion = "2023-06-01"
)

// #endregion config

// #region client

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	attempts   int
	httpClient *http.Client
}

// NewAnthropicClient creates a client for the Anthropic backend.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	c := &AnthropicClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		attempts:   cfg.retryCount(),
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
	if c.baseURL == "" {
		c.baseURL = anthropicBaseURL
	}
	if c.model == "" {
		c.model = anthropicModel
	}
	return c
}

// #endregion client

// #region wire-types

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// #endregion wire-types

// #region determine-state

// DetermineState classifies the facts against the state set via Claude.
func (c *AnthropicClient) DetermineState(ctx context.Context, states StateSet, facts []string) (Determination, error) {
	return determineWithRetry(ctx, "anthropic", c.attempts, states, facts, c.complete)
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       c.model,
		MaxTokens:   1024,
		Temperature: 0,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic status %d: %s", resp.StatusCode, raw)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text block in response")
}

// #endregion determine-state
