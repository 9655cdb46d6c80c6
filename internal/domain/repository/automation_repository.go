package repository

import (
	"context"

	"voicehub/internal/domain/entity"
)

type AutomationRepository interface {
	// ListEnabled returns all enabled automations for a client.
	ListEnabled(ctx context.Context, clientID string) ([]*entity.ClientAutomation, error)

	// Upsert inserts or updates the automation keyed by (client, recipe).
	Upsert(ctx context.Context, a *entity.ClientAutomation) error

	// SetEnabled toggles a recipe on or off.
	SetEnabled(ctx context.Context, clientID, recipe string, enabled bool) error
}
