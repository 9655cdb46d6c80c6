package repository

import (
	"context"

	"voicehub/internal/domain/entity"
)

type ConnectionRepository interface {
	// FindByClientProvider finds the connection for a (client, provider) pair.
	// Returns nil without error when no connection exists.
	FindByClientProvider(ctx context.Context, clientID, provider string) (*entity.OAuthConnection, error)

	// ListByClient returns all connections for a client.
	ListByClient(ctx context.Context, clientID string) ([]*entity.OAuthConnection, error)

	// Upsert inserts or replaces the connection keyed by (client, provider).
	Upsert(ctx context.Context, conn *entity.OAuthConnection) error

	// UpdateTokens overwrites token material after a refresh, expiring the
	// access token expiresInSec seconds from now. Last write wins; no
	// row-level ownership is assumed.
	UpdateTokens(ctx context.Context, clientID, provider, accessToken, refreshToken string, expiresInSec int64) error

	// MarkInvalid flags the connection as needing re-authorization.
	MarkInvalid(ctx context.Context, clientID, provider string) error

	// Delete removes the connection row.
	Delete(ctx context.Context, clientID, provider string) error
}
