package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/oauth"
)

// OAuthUsecase drives the portal-facing integration surface: starting an
// authorization flow, completing the callback, listing connection status and
// disconnecting.
type OAuthUsecase interface {
	// StartFlow returns the provider authorization URL to redirect the user to.
	StartFlow(clientID, providerName, redirectPath string) (string, error)

	// HandleCallback completes the code exchange and returns the portal path
	// to redirect the browser back to.
	HandleCallback(ctx context.Context, state, code string) (string, error)

	// ListConnections reports connection status per provider for the portal.
	ListConnections(ctx context.Context, clientID string) ([]*entity.ConnectionStatusResponse, error)

	// Disconnect removes a provider connection.
	Disconnect(ctx context.Context, clientID, providerName string) error
}

type oauthUsecase struct {
	tokens oauth.TokenService
	repo   repository.ConnectionRepository
	logger *zap.Logger
}

func NewOAuthUsecase(tokens oauth.TokenService, repo repository.ConnectionRepository, logger *zap.Logger) OAuthUsecase {
	return &oauthUsecase{
		tokens: tokens,
		repo:   repo,
		logger: logger,
	}
}

func (u *oauthUsecase) StartFlow(clientID, providerName, redirectPath string) (string, error) {
	provider, err := oauth.ParseProvider(providerName)
	if err != nil {
		return "", err
	}

	authURL, err := u.tokens.BuildAuthURL(clientID, provider, redirectPath)
	if err != nil {
		return "", fmt.Errorf("failed to build authorization URL: %w", err)
	}

	u.logger.Info("Starting OAuth flow",
		zap.String("client_id", clientID),
		zap.String("provider", providerName),
	)

	return authURL, nil
}

func (u *oauthUsecase) HandleCallback(ctx context.Context, state, code string) (string, error) {
	result, err := u.tokens.CompleteFlow(ctx, state, code)
	if err != nil {
		return "", err
	}

	redirectPath := result.RedirectPath
	if redirectPath == "" {
		redirectPath = "/portal/integrations"
	}

	return redirectPath, nil
}

func (u *oauthUsecase) ListConnections(ctx context.Context, clientID string) ([]*entity.ConnectionStatusResponse, error) {
	conns, err := u.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	statuses := make([]*entity.ConnectionStatusResponse, 0, len(conns))
	for _, conn := range conns {
		needsReauth := conn.Status == entity.ConnectionStatusInvalid ||
			(conn.RefreshToken == "" && time.Now().After(conn.ExpiresAt))
		statuses = append(statuses, &entity.ConnectionStatusResponse{
			Provider:     conn.Provider,
			Connected:    true,
			AccountLabel: conn.AccountLabel,
			ExpiresAt:    conn.ExpiresAt,
			NeedsReauth:  needsReauth,
		})
	}

	return statuses, nil
}

func (u *oauthUsecase) Disconnect(ctx context.Context, clientID, providerName string) error {
	provider, err := oauth.ParseProvider(providerName)
	if err != nil {
		return err
	}

	return u.tokens.Disconnect(ctx, clientID, provider)
}
