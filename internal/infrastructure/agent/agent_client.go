package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/config"
)

// Client talks to the conversational-AI provider's management API: updating
// the agent system prompt and managing tool registrations.
type Client struct {
	config     *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	timeout := cfg.Agent.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UpdatePrompt pushes a regenerated system prompt to the client's agent.
func (c *Client) UpdatePrompt(ctx context.Context, clientID, prompt string) error {
	if c.config.Agent.BaseURL == "" {
		c.logger.Debug("Agent API not configured, skipping prompt update")
		return nil
	}

	apiURL := fmt.Sprintf("%s/agents/%s/prompt", c.config.Agent.BaseURL, url.PathEscape(clientID))

	body, err := json.Marshal(map[string]string{"system_prompt": prompt})
	if err != nil {
		return fmt.Errorf("failed to marshal prompt update: %w", err)
	}

	return c.do(ctx, http.MethodPut, apiURL, body)
}

// UnregisterTools removes any agent tool registrations tied to a provider
// connection (e.g. the calendar booking tool after a calendar disconnect).
func (c *Client) UnregisterTools(ctx context.Context, clientID, provider string) error {
	if c.config.Agent.BaseURL == "" {
		c.logger.Debug("Agent API not configured, skipping tool unregistration")
		return nil
	}

	apiURL := fmt.Sprintf("%s/agents/%s/tools?provider=%s",
		c.config.Agent.BaseURL,
		url.PathEscape(clientID),
		url.QueryEscape(provider),
	)

	return c.do(ctx, http.MethodDelete, apiURL, nil)
}

func (c *Client) do(ctx context.Context, method, apiURL string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Agent.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read agent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("agent request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug("Agent API call succeeded",
		zap.String("method", method),
		zap.String("url", apiURL),
		zap.Int("status", resp.StatusCode),
	)

	return nil
}
