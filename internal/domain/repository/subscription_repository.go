package repository

import (
	"context"

	"voicehub/internal/domain/entity"
)

// SubscriptionRepository reads and writes webhook subscriptions for one hook
// platform. Each platform (zapier, make, n8n) has its own table; the
// implementation is selected by platform name.
type SubscriptionRepository interface {
	// ListActive returns active subscriptions for a (client, event) pair.
	ListActive(ctx context.Context, platform, clientID, event string) ([]*entity.WebhookSubscription, error)

	// Create registers a new subscription.
	Create(ctx context.Context, platform string, sub *entity.WebhookSubscription) error

	// Deactivate marks a subscription inactive (HTTP 410 from the target).
	Deactivate(ctx context.Context, platform, id string) error

	// Delete removes a subscription (explicit unsubscribe).
	Delete(ctx context.Context, platform, clientID, id string) error
}
