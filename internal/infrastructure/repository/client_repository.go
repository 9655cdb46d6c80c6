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

type clientRepository struct {
	db *database.Database
}

func NewClientRepository(db *database.Database) repository.ClientRepository {
	return &clientRepository{
		db: db,
	}
}

func (r *clientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `
		SELECT id, name, system_prompt, created_at, updated_at
		FROM clients
		WHERE id = $1
	`

	var client entity.Client
	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.Name, &client.SystemPrompt, &client.CreatedAt, &client.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return &client, nil
}

func (r *clientRepository) UpdateSystemPrompt(ctx context.Context, clientID, prompt string) error {
	query := `
		UPDATE clients
		SET system_prompt = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(ctx, query, prompt, time.Now(), clientID)
	if err != nil {
		return fmt.Errorf("failed to update system prompt: %w", err)
	}

	return nil
}

type settingsRepository struct {
	db *database.Database
}

func NewSettingsRepository(db *database.Database) repository.SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

func (r *settingsRepository) FindByClient(ctx context.Context, clientID string) (*entity.BusinessSettings, error) {
	query := `
		SELECT client_id, business_name, description, greeting, timezone, hours, services, faqs, updated_at
		FROM business_settings
		WHERE client_id = $1
	`

	var s entity.BusinessSettings
	err := r.db.DB.QueryRowContext(ctx, query, clientID).Scan(
		&s.ClientID, &s.BusinessName, &s.Description, &s.Greeting,
		&s.Timezone, &s.Hours, &s.Services, &s.FAQs, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find business settings: %w", err)
	}

	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *entity.BusinessSettings) error {
	query := `
		INSERT INTO business_settings (client_id, business_name, description, greeting, timezone, hours, services, faqs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(client_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			description = EXCLUDED.description,
			greeting = EXCLUDED.greeting,
			timezone = EXCLUDED.timezone,
			hours = EXCLUDED.hours,
			services = EXCLUDED.services,
			faqs = EXCLUDED.faqs,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		s.ClientID, s.BusinessName, s.Description, s.Greeting, s.Timezone, s.Hours, s.Services, s.FAQs, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert business settings: %w", err)
	}

	return nil
}

type hookAPIKeyRepository struct {
	db *database.Database
}

func NewHookAPIKeyRepository(db *database.Database) repository.HookAPIKeyRepository {
	return &hookAPIKeyRepository{
		db: db,
	}
}

func (r *hookAPIKeyRepository) FindByClient(ctx context.Context, clientID string) (*entity.HookAPIKey, error) {
	query := `
		SELECT id, client_id, key_hash, created_at
		FROM hook_api_keys
		WHERE client_id = $1
	`

	var key entity.HookAPIKey
	err := r.db.DB.QueryRowContext(ctx, query, clientID).Scan(
		&key.ID, &key.ClientID, &key.KeyHash, &key.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find hook api key: %w", err)
	}

	return &key, nil
}

func (r *hookAPIKeyRepository) Save(ctx context.Context, key *entity.HookAPIKey) error {
	query := `
		INSERT INTO hook_api_keys (client_id, key_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(client_id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash
	`

	_, err := r.db.DB.ExecContext(ctx, query, key.ClientID, key.KeyHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save hook api key: %w", err)
	}

	return nil
}
