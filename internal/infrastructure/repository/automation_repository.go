package repository

import (
	"context"
	"fmt"
	"time"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/database"
)

type automationRepository struct {
	db *database.Database
}

func NewAutomationRepository(db *database.Database) repository.AutomationRepository {
	return &automationRepository{
		db: db,
	}
}

func (r *automationRepository) ListEnabled(ctx context.Context, clientID string) ([]*entity.ClientAutomation, error) {
	query := `
		SELECT id, client_id, recipe, provider, enabled, config, created_at, updated_at
		FROM client_automations
		WHERE client_id = $1 AND enabled = TRUE
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer rows.Close()

	var automations []*entity.ClientAutomation
	for rows.Next() {
		var a entity.ClientAutomation
		if err := rows.Scan(
			&a.ID,
			&a.ClientID,
			&a.Recipe,
			&a.Provider,
			&a.Enabled,
			&a.Config,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}
		automations = append(automations, &a)
	}

	return automations, rows.Err()
}

func (r *automationRepository) Upsert(ctx context.Context, a *entity.ClientAutomation) error {
	query := `
		INSERT INTO client_automations (client_id, recipe, provider, enabled, config, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(client_id, recipe) DO UPDATE SET
			provider = EXCLUDED.provider,
			enabled = EXCLUDED.enabled,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query, a.ClientID, a.Recipe, a.Provider, a.Enabled, a.Config, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert automation: %w", err)
	}

	return nil
}

func (r *automationRepository) SetEnabled(ctx context.Context, clientID, recipe string, enabled bool) error {
	query := `
		UPDATE client_automations
		SET enabled = $1, updated_at = $2
		WHERE client_id = $3 AND recipe = $4
	`

	_, err := r.db.DB.ExecContext(ctx, query, enabled, time.Now(), clientID, recipe)
	if err != nil {
		return fmt.Errorf("failed to toggle automation: %w", err)
	}

	return nil
}
