package repository

import (
	"context"

	"voicehub/internal/domain/entity"
)

type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Client, error)
	UpdateSystemPrompt(ctx context.Context, clientID, prompt string) error
}

type SettingsRepository interface {
	// FindByClient returns nil without error when the client has no settings row yet.
	FindByClient(ctx context.Context, clientID string) (*entity.BusinessSettings, error)
	Upsert(ctx context.Context, s *entity.BusinessSettings) error
}

type HookAPIKeyRepository interface {
	// FindByClient returns the stored key hash for a client, nil when absent.
	FindByClient(ctx context.Context, clientID string) (*entity.HookAPIKey, error)
	Save(ctx context.Context, key *entity.HookAPIKey) error
}
