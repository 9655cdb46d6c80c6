package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/vault"
)

// twilioMetadata is the provider metadata blob stored on a client's twilio
// credential row.
type twilioMetadata struct {
	AccountSID string `json:"account_sid"`
	FromNumber string `json:"from_number"`
}

// TwilioClient sends SMS through Twilio's REST API using the client's stored
// (encrypted) credentials.
type TwilioClient struct {
	config     *config.Config
	repo       repository.ConnectionRepository
	vault      *vault.Vault
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTwilioClient(cfg *config.Config, repo repository.ConnectionRepository, v *vault.Vault, logger *zap.Logger) *TwilioClient {
	timeout := cfg.Twilio.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &TwilioClient{
		config:     cfg,
		repo:       repo,
		vault:      v,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendSMS sends one text message on behalf of a client. The client must have
// a twilio credential row (account SID and from number in metadata, auth
// token encrypted in the access_token column).
func (c *TwilioClient) SendSMS(ctx context.Context, clientID, to, body string) error {
	conn, err := c.repo.FindByClientProvider(ctx, clientID, config.ProviderTwilio)
	if err != nil {
		return fmt.Errorf("failed to load twilio credentials: %w", err)
	}
	if conn == nil {
		return fmt.Errorf("twilio is not configured for client %s", clientID)
	}

	var meta twilioMetadata
	if err := json.Unmarshal([]byte(conn.Metadata), &meta); err != nil {
		return fmt.Errorf("invalid twilio metadata: %w", err)
	}
	if meta.AccountSID == "" || meta.FromNumber == "" {
		return fmt.Errorf("twilio metadata missing account_sid or from_number")
	}

	authToken, err := c.vault.Decrypt(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to decrypt twilio auth token: %w", err)
	}

	baseURL := c.config.Twilio.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	apiURL := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", baseURL, url.PathEscape(meta.AccountSID))

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", meta.FromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(meta.AccountSID, authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	c.logger.Info("SMS sent",
		zap.String("client_id", clientID),
		zap.String("to", to),
	)

	return nil
}
