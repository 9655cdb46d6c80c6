package repository

import (
	"context"
	"fmt"
	"time"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/database"
)

// subscriptionTables maps a hook platform to its subscription table. The
// tables are identical in shape; delivery semantics are shared.
var subscriptionTables = map[string]string{
	entity.HookPlatformZapier: "webhook_subscriptions_zapier",
	entity.HookPlatformMake:   "webhook_subscriptions_make",
	entity.HookPlatformN8N:    "webhook_subscriptions_n8n",
}

type subscriptionRepository struct {
	db *database.Database
}

func NewSubscriptionRepository(db *database.Database) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

func tableFor(platform string) (string, error) {
	table, ok := subscriptionTables[platform]
	if !ok {
		return "", fmt.Errorf("unknown hook platform %q", platform)
	}
	return table, nil
}

func (r *subscriptionRepository) ListActive(ctx context.Context, platform, clientID, event string) ([]*entity.WebhookSubscription, error) {
	table, err := tableFor(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, client_id, hook_url, event, active, created_at, updated_at
		FROM %s
		WHERE client_id = $1 AND event = $2 AND active = TRUE
	`, table)

	rows, err := r.db.DB.QueryContext(ctx, query, clientID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.WebhookSubscription
	for rows.Next() {
		var sub entity.WebhookSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.ClientID,
			&sub.HookURL,
			&sub.Event,
			&sub.Active,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}

func (r *subscriptionRepository) Create(ctx context.Context, platform string, sub *entity.WebhookSubscription) error {
	table, err := tableFor(platform)
	if err != nil {
		return err
	}

	// On a re-subscribe the conflict keeps the existing row; RETURNING hands
	// back the surviving id so the caller's unsubscribe targets the right row.
	query := fmt.Sprintf(`
		INSERT INTO %s (id, client_id, hook_url, event, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT(client_id, hook_url, event) DO UPDATE SET
			active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, table)

	err = r.db.DB.QueryRowContext(ctx, query, sub.ID, sub.ClientID, sub.HookURL, sub.Event, time.Now()).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) Deactivate(ctx context.Context, platform, id string) error {
	table, err := tableFor(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET active = FALSE, updated_at = $1 WHERE id = $2`, table)

	_, err = r.db.DB.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, platform, clientID, id string) error {
	table, err := tableFor(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE client_id = $1 AND id = $2`, table)

	res, err := r.db.DB.ExecContext(ctx, query, clientID, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("subscription %s not found", id)
	}

	return nil
}
