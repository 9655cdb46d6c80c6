package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
)

// HooksUsecase serves the automation platforms' subscribe/unsubscribe surface.
// Authentication is a header-carried key of the form "clientId:randomSecret";
// only the one-way hash of the secret is stored.
type HooksUsecase interface {
	// VerifyKey checks an API key and returns the client id it belongs to.
	VerifyKey(ctx context.Context, apiKey string) (string, error)

	Subscribe(ctx context.Context, platform, clientID string, req *entity.SubscribeRequest) (*entity.WebhookSubscription, error)
	Unsubscribe(ctx context.Context, platform, clientID, subscriptionID string) error
}

type hooksUsecase struct {
	keys   repository.HookAPIKeyRepository
	subs   repository.SubscriptionRepository
	logger *zap.Logger
}

func NewHooksUsecase(keys repository.HookAPIKeyRepository, subs repository.SubscriptionRepository, logger *zap.Logger) HooksUsecase {
	return &hooksUsecase{
		keys:   keys,
		subs:   subs,
		logger: logger,
	}
}

// HashHookSecret hashes the random half of an API key for storage and lookup.
// The secret is high-entropy, so an unsalted digest is sufficient.
func HashHookSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (u *hooksUsecase) VerifyKey(ctx context.Context, apiKey string) (string, error) {
	clientID, secret, found := strings.Cut(apiKey, ":")
	if !found || clientID == "" || secret == "" {
		return "", fmt.Errorf("malformed api key")
	}

	stored, err := u.keys.FindByClient(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}
	if stored == nil {
		return "", fmt.Errorf("unknown api key")
	}

	hash := HashHookSecret(secret)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(stored.KeyHash)) != 1 {
		return "", fmt.Errorf("invalid api key")
	}

	return clientID, nil
}

func (u *hooksUsecase) Subscribe(ctx context.Context, platform, clientID string, req *entity.SubscribeRequest) (*entity.WebhookSubscription, error) {
	if req.HookURL == "" {
		return nil, fmt.Errorf("hookUrl is required")
	}
	if req.Event == "" {
		return nil, fmt.Errorf("event is required")
	}

	sub := &entity.WebhookSubscription{
		ID:       uuid.NewString(),
		ClientID: clientID,
		HookURL:  req.HookURL,
		Event:    req.Event,
		Active:   true,
	}

	if err := u.subs.Create(ctx, platform, sub); err != nil {
		return nil, err
	}

	u.logger.Info("Webhook subscription created",
		zap.String("platform", platform),
		zap.String("client_id", clientID),
		zap.String("event", req.Event),
		zap.String("subscription_id", sub.ID),
	)

	return sub, nil
}

func (u *hooksUsecase) Unsubscribe(ctx context.Context, platform, clientID, subscriptionID string) error {
	if err := u.subs.Delete(ctx, platform, clientID, subscriptionID); err != nil {
		return err
	}

	u.logger.Info("Webhook subscription removed",
		zap.String("platform", platform),
		zap.String("client_id", clientID),
		zap.String("subscription_id", subscriptionID),
	)

	return nil
}
