package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/database"
)

type connectionRepository struct {
	db *database.Database
}

func NewConnectionRepository(db *database.Database) repository.ConnectionRepository {
	return &connectionRepository{
		db: db,
	}
}

func (r *connectionRepository) FindByClientProvider(ctx context.Context, clientID, provider string) (*entity.OAuthConnection, error) {
	query := `
		SELECT id, client_id, provider, account_label, access_token, refresh_token, scope, expires_at, metadata, status, created_at, updated_at
		FROM oauth_connections
		WHERE client_id = $1 AND provider = $2
	`

	var conn entity.OAuthConnection
	var expiresAt sql.NullTime

	err := r.db.DB.QueryRowContext(ctx, query, clientID, provider).Scan(
		&conn.ID,
		&conn.ClientID,
		&conn.Provider,
		&conn.AccountLabel,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.Scope,
		&expiresAt,
		&conn.Metadata,
		&conn.Status,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Not found, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}

	if expiresAt.Valid {
		conn.ExpiresAt = expiresAt.Time
	}

	return &conn, nil
}

func (r *connectionRepository) ListByClient(ctx context.Context, clientID string) ([]*entity.OAuthConnection, error) {
	query := `
		SELECT id, client_id, provider, account_label, access_token, refresh_token, scope, expires_at, metadata, status, created_at, updated_at
		FROM oauth_connections
		WHERE client_id = $1
		ORDER BY provider
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var conns []*entity.OAuthConnection
	for rows.Next() {
		var conn entity.OAuthConnection
		var expiresAt sql.NullTime
		if err := rows.Scan(
			&conn.ID,
			&conn.ClientID,
			&conn.Provider,
			&conn.AccountLabel,
			&conn.AccessToken,
			&conn.RefreshToken,
			&conn.Scope,
			&expiresAt,
			&conn.Metadata,
			&conn.Status,
			&conn.CreatedAt,
			&conn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		if expiresAt.Valid {
			conn.ExpiresAt = expiresAt.Time
		}
		conns = append(conns, &conn)
	}

	return conns, rows.Err()
}

func (r *connectionRepository) Upsert(ctx context.Context, conn *entity.OAuthConnection) error {
	query := `
		INSERT INTO oauth_connections (client_id, provider, account_label, access_token, refresh_token, scope, expires_at, metadata, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(client_id, provider) DO UPDATE SET
			account_label = EXCLUDED.account_label,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			metadata = EXCLUDED.metadata,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		conn.ClientID,
		conn.Provider,
		conn.AccountLabel,
		conn.AccessToken,
		conn.RefreshToken,
		conn.Scope,
		conn.ExpiresAt,
		conn.Metadata,
		conn.Status,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}

	return nil
}

func (r *connectionRepository) UpdateTokens(ctx context.Context, clientID, provider, accessToken, refreshToken string, expiresInSec int64) error {
	query := `
		UPDATE oauth_connections
		SET access_token = $1, refresh_token = $2, expires_at = $3, status = $4, updated_at = $5
		WHERE client_id = $6 AND provider = $7
	`

	expiresTime := time.Now().Add(time.Duration(expiresInSec) * time.Second)
	_, err := r.db.DB.ExecContext(ctx, query,
		accessToken, refreshToken, expiresTime, entity.ConnectionStatusActive, time.Now(), clientID, provider,
	)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}

	return nil
}

func (r *connectionRepository) MarkInvalid(ctx context.Context, clientID, provider string) error {
	query := `
		UPDATE oauth_connections
		SET status = $1, updated_at = $2
		WHERE client_id = $3 AND provider = $4
	`

	_, err := r.db.DB.ExecContext(ctx, query, entity.ConnectionStatusInvalid, time.Now(), clientID, provider)
	if err != nil {
		return fmt.Errorf("failed to mark connection invalid: %w", err)
	}

	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, clientID, provider string) error {
	query := `DELETE FROM oauth_connections WHERE client_id = $1 AND provider = $2`

	_, err := r.db.DB.ExecContext(ctx, query, clientID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	return nil
}
