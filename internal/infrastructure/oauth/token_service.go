package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/vault"
)

// expiryMargin guards against handing out a token that expires mid-request.
const expiryMargin = 60 * time.Second

// nonExpiringTTL is the stored expiry for tokens issued without expires_in
// (Slack-style non-rotating bot tokens). Reads must never route such a
// connection into the refresh path.
const nonExpiringTTL = 10 * 365 * 24 * time.Hour

// ErrNotConnected means no connection row exists for the (client, provider)
// pair. The caller should surface a setup prompt, not retry.
var ErrNotConnected = errors.New("oauth: provider not connected")

// ErrReauthorizationRequired means the refresh token was rejected. The
// connection has been flagged invalid; callers must not loop retrying.
var ErrReauthorizationRequired = errors.New("oauth: re-authorization required")

// TokenResponse is the provider token endpoint's response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// FlowResult reports a completed authorization code exchange.
type FlowResult struct {
	ClientID     string
	Provider     Provider
	AccountLabel string
	RedirectPath string
}

// ToolRegistrar unregisters agent-facing tool registrations tied to a
// connection. Implemented by the agent provider client.
type ToolRegistrar interface {
	UnregisterTools(ctx context.Context, clientID, provider string) error
}

// TokenService owns the OAuth token lifecycle per (client, provider):
// acquisition, transparent refresh, and disconnect. Refresh tokens never
// leave this package.
type TokenService interface {
	// BuildAuthURL assembles the provider authorization URL with an
	// encrypted state token.
	BuildAuthURL(clientID string, provider Provider, redirectPath string) (string, error)

	// GetValidToken returns a non-expired access token, refreshing and
	// persisting transparently when needed.
	GetValidToken(ctx context.Context, clientID string, provider Provider) (string, error)

	// CompleteFlow validates the state token, exchanges the authorization
	// code, fetches provider identity and upserts the connection.
	CompleteFlow(ctx context.Context, state, code string) (*FlowResult, error)

	// Disconnect revokes remotely (best-effort), unregisters agent tools
	// (best-effort) and deletes the connection row unconditionally.
	Disconnect(ctx context.Context, clientID string, provider Provider) error
}

type tokenService struct {
	config    *config.Config
	registry  *Registry
	vault     *vault.Vault
	repo      repository.ConnectionRepository
	registrar ToolRegistrar
	logger    *zap.Logger
	client    *http.Client
}

func NewTokenService(
	cfg *config.Config,
	registry *Registry,
	v *vault.Vault,
	repo repository.ConnectionRepository,
	registrar ToolRegistrar,
	logger *zap.Logger,
) TokenService {
	return &tokenService{
		config:    cfg,
		registry:  registry,
		vault:     v,
		repo:      repo,
		registrar: registrar,
		logger:    logger,
		client: &http.Client{
			Timeout: cfg.Tools.Timeout,
		},
	}
}

func (s *tokenService) BuildAuthURL(clientID string, provider Provider, redirectPath string) (string, error) {
	pc, err := s.registry.Lookup(provider)
	if err != nil {
		return "", err
	}

	state, err := EncodeState(s.vault, clientID, provider, redirectPath)
	if err != nil {
		return "", fmt.Errorf("failed to build oauth state: %w", err)
	}

	params := url.Values{}
	params.Set("client_id", pc.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", s.config.App.BaseURL+"/redirect/oauth")
	params.Set("scope", strings.Join(pc.Scopes, " "))
	params.Set("access_type", "offline")
	params.Set("state", state)

	return pc.AuthURL + "?" + params.Encode(), nil
}

func (s *tokenService) GetValidToken(ctx context.Context, clientID string, provider Provider) (string, error) {
	conn, err := s.repo.FindByClientProvider(ctx, clientID, provider.String())
	if err != nil {
		return "", fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return "", ErrNotConnected
	}
	if conn.Status == entity.ConnectionStatusInvalid {
		return "", ErrReauthorizationRequired
	}

	// Stored token still valid with margin to spare
	if time.Until(conn.ExpiresAt) > expiryMargin {
		accessToken, err := s.vault.Decrypt(conn.AccessToken)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt access token: %w", err)
		}
		s.logger.Debug("Returning stored access token",
			zap.String("client_id", clientID),
			zap.String("provider", provider.String()),
		)
		return accessToken, nil
	}

	return s.refresh(ctx, conn, provider)
}

func (s *tokenService) refresh(ctx context.Context, conn *entity.OAuthConnection, provider Provider) (string, error) {
	pc, err := s.registry.Lookup(provider)
	if err != nil {
		return "", err
	}

	if conn.RefreshToken == "" {
		s.markInvalid(ctx, conn)
		return "", ErrReauthorizationRequired
	}

	refreshToken, err := s.vault.Decrypt(conn.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	s.logger.Info("Refreshing access token",
		zap.String("client_id", conn.ClientID),
		zap.String("provider", provider.String()),
	)

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", pc.ClientID)
	form.Set("client_secret", pc.ClientSecret)

	tokenResp, err := s.requestToken(ctx, pc.TokenURL, form)
	if err != nil {
		// Refresh token revoked or expired. Flag the connection so callers
		// stop retrying and the portal shows a reconnect prompt.
		s.logger.Warn("Token refresh failed, flagging connection",
			zap.String("client_id", conn.ClientID),
			zap.String("provider", provider.String()),
			zap.Error(err),
		)
		s.markInvalid(ctx, conn)
		return "", ErrReauthorizationRequired
	}

	if err := s.persistTokens(ctx, conn.ClientID, provider, tokenResp, refreshToken); err != nil {
		return "", err
	}

	s.logger.Info("Access token refreshed",
		zap.String("client_id", conn.ClientID),
		zap.String("provider", provider.String()),
		zap.Int("expires_in", tokenResp.ExpiresIn),
	)

	return tokenResp.AccessToken, nil
}

func (s *tokenService) CompleteFlow(ctx context.Context, state, code string) (*FlowResult, error) {
	payload, err := DecodeState(s.vault, state)
	if err != nil {
		return nil, err
	}

	provider := Provider(payload.Provider)
	pc, err := s.registry.Lookup(provider)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.config.App.BaseURL+"/redirect/oauth")
	form.Set("client_id", pc.ClientID)
	form.Set("client_secret", pc.ClientSecret)

	tokenResp, err := s.requestToken(ctx, pc.TokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	accountLabel := ""
	if pc.IdentityURL != "" {
		accountLabel, err = s.fetchIdentity(ctx, pc.IdentityURL, tokenResp.AccessToken)
		if err != nil {
			// Identity is informational; the grant itself succeeded.
			s.logger.Warn("Failed to fetch provider identity",
				zap.String("provider", provider.String()),
				zap.Error(err),
			)
		}
	}

	encAccess, err := s.vault.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh := ""
	if tokenResp.RefreshToken != "" {
		encRefresh, err = s.vault.Encrypt(tokenResp.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	if tokenResp.ExpiresIn <= 0 {
		expiresAt = time.Now().Add(nonExpiringTTL)
	}

	conn := &entity.OAuthConnection{
		ClientID:     payload.ClientID,
		Provider:     provider.String(),
		AccountLabel: accountLabel,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		Scope:        tokenResp.Scope,
		ExpiresAt:    expiresAt,
		Metadata:     "{}",
		Status:       entity.ConnectionStatusActive,
	}

	if err := s.repo.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Info("OAuth connection established",
		zap.String("client_id", payload.ClientID),
		zap.String("provider", provider.String()),
		zap.String("account", accountLabel),
	)

	return &FlowResult{
		ClientID:     payload.ClientID,
		Provider:     provider,
		AccountLabel: accountLabel,
		RedirectPath: payload.RedirectPath,
	}, nil
}

func (s *tokenService) Disconnect(ctx context.Context, clientID string, provider Provider) error {
	pc, err := s.registry.Lookup(provider)
	if err != nil {
		return err
	}

	conn, err := s.repo.FindByClientProvider(ctx, clientID, provider.String())
	if err != nil {
		return fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return ErrNotConnected
	}

	// Best-effort remote revocation. A dangling remote grant is less harmful
	// than a dangling local row blocking re-connection, so failures here only
	// get logged.
	if pc.RevokeURL != "" {
		if err := s.revoke(ctx, pc, conn); err != nil {
			s.logger.Warn("Remote token revocation failed",
				zap.String("client_id", clientID),
				zap.String("provider", provider.String()),
				zap.Error(err),
			)
		}
	}

	// Best-effort agent tool unregistration
	if err := s.registrar.UnregisterTools(ctx, clientID, provider.String()); err != nil {
		s.logger.Warn("Agent tool unregistration failed",
			zap.String("client_id", clientID),
			zap.String("provider", provider.String()),
			zap.Error(err),
		)
	}

	// Local deletion always proceeds
	if err := s.repo.Delete(ctx, clientID, provider.String()); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.logger.Info("OAuth connection removed",
		zap.String("client_id", clientID),
		zap.String("provider", provider.String()),
	)

	return nil
}

func (s *tokenService) revoke(ctx context.Context, pc config.ProviderConfig, conn *entity.OAuthConnection) error {
	accessToken, err := s.vault.Decrypt(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}

	form := url.Values{}
	form.Set("token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("revoke request failed: status=%d", resp.StatusCode)
	}
	return nil
}

func (s *tokenService) requestToken(ctx context.Context, tokenURL string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	return &tokenResp, nil
}

// persistTokens re-encrypts and stores refreshed token material. The update
// is a plain last-write-wins single-row UPDATE; concurrent refreshes for the
// same connection are tolerated, the later write supersedes.
func (s *tokenService) persistTokens(ctx context.Context, clientID string, provider Provider, tokenResp *TokenResponse, previousRefresh string) error {
	encAccess, err := s.vault.Encrypt(tokenResp.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	// Providers that rotate refresh tokens return a new one; others expect
	// the previous token to keep being used.
	refreshToken := tokenResp.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefresh
	}
	encRefresh, err := s.vault.Encrypt(refreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	expiresInSec := int64(tokenResp.ExpiresIn)
	if expiresInSec <= 0 {
		expiresInSec = int64(nonExpiringTTL / time.Second)
	}
	if err := s.repo.UpdateTokens(ctx, clientID, provider.String(), encAccess, encRefresh, expiresInSec); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	return nil
}

func (s *tokenService) markInvalid(ctx context.Context, conn *entity.OAuthConnection) {
	if err := s.repo.MarkInvalid(ctx, conn.ClientID, conn.Provider); err != nil {
		s.logger.Error("Failed to flag connection invalid",
			zap.String("client_id", conn.ClientID),
			zap.String("provider", conn.Provider),
			zap.Error(err),
		)
	}
}

func (s *tokenService) fetchIdentity(ctx context.Context, identityURL, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identityURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read identity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity request failed: status=%d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("failed to decode identity response: %w", err)
	}

	for _, key := range []string{"email", "user_email", "name", "login"} {
		if v, ok := raw[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}
