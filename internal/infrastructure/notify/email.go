package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/config"
)

// EmailClient sends transactional email through an HTTP email API with the
// platform-level key.
type EmailClient struct {
	config     *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewEmailClient(cfg *config.Config, logger *zap.Logger) *EmailClient {
	timeout := cfg.Email.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &EmailClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *EmailClient) SendEmail(ctx context.Context, to, subject, body string) error {
	if c.config.Email.BaseURL == "" || c.config.Email.APIKey == "" {
		return fmt.Errorf("email provider is not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"from":    c.config.Email.From,
		"to":      []string{to},
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Email.BaseURL+"/emails", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Email.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	c.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	return nil
}
