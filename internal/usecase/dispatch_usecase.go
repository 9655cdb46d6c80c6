package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
)

// deliveryTimeout bounds each outbound webhook POST so a slow subscriber
// cannot stall the triggering request.
const deliveryTimeout = 10 * time.Second

// DispatchUsecase fans a domain event out to all active externally-registered
// callback URLs for a client. Delivery is best-effort, at most one attempt
// per subscriber per event; one subscriber's failure never affects another.
type DispatchUsecase interface {
	// DispatchZapier delivers to the client's Zapier subscriptions.
	DispatchZapier(ctx context.Context, clientID, event string, payload map[string]interface{}) error

	// DispatchMake delivers to the client's Make subscriptions.
	DispatchMake(ctx context.Context, clientID, event string, payload map[string]interface{}) error

	// DispatchN8N delivers to the client's n8n subscriptions.
	DispatchN8N(ctx context.Context, clientID, event string, payload map[string]interface{}) error

	// DispatchAll delivers to every hook platform.
	DispatchAll(ctx context.Context, clientID, event string, payload map[string]interface{})
}

type dispatchUsecase struct {
	subs        repository.SubscriptionRepository
	deliveryLog repository.DeliveryLogRepository
	logger      *zap.Logger
	httpClient  *http.Client
}

func NewDispatchUsecase(
	subs repository.SubscriptionRepository,
	deliveryLog repository.DeliveryLogRepository,
	logger *zap.Logger,
) DispatchUsecase {
	return &dispatchUsecase{
		subs:        subs,
		deliveryLog: deliveryLog,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: deliveryTimeout,
		},
	}
}

func (u *dispatchUsecase) DispatchZapier(ctx context.Context, clientID, event string, payload map[string]interface{}) error {
	return u.dispatch(ctx, entity.HookPlatformZapier, clientID, event, payload)
}

func (u *dispatchUsecase) DispatchMake(ctx context.Context, clientID, event string, payload map[string]interface{}) error {
	return u.dispatch(ctx, entity.HookPlatformMake, clientID, event, payload)
}

func (u *dispatchUsecase) DispatchN8N(ctx context.Context, clientID, event string, payload map[string]interface{}) error {
	return u.dispatch(ctx, entity.HookPlatformN8N, clientID, event, payload)
}

func (u *dispatchUsecase) DispatchAll(ctx context.Context, clientID, event string, payload map[string]interface{}) {
	for _, platform := range []string{entity.HookPlatformZapier, entity.HookPlatformMake, entity.HookPlatformN8N} {
		if err := u.dispatch(ctx, platform, clientID, event, payload); err != nil {
			// A platform-level error here means the subscriber list could not
			// be read; deliveries themselves never surface errors.
			u.logger.Error("Failed to dispatch event",
				zap.String("platform", platform),
				zap.String("client_id", clientID),
				zap.String("event", event),
				zap.Error(err),
			)
		}
	}
}

// dispatch delivers one event to every active subscription on one platform.
// Only a failure to read the subscriber list is returned to the caller.
func (u *dispatchUsecase) dispatch(ctx context.Context, platform, clientID, event string, payload map[string]interface{}) error {
	subs, err := u.subs.ListActive(ctx, platform, clientID, event)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["event"] = event

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	// Deliveries are independent network operations; run them concurrently,
	// each with its own error boundary.
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *entity.WebhookSubscription) {
			defer wg.Done()
			u.deliver(ctx, platform, sub, event, jsonBody)
		}(sub)
	}
	wg.Wait()

	return nil
}

func (u *dispatchUsecase) deliver(ctx context.Context, platform string, sub *entity.WebhookSubscription, event string, jsonBody []byte) {
	start := time.Now()

	statusCode, err := u.post(ctx, sub.HookURL, jsonBody)

	logEntry := &entity.DeliveryLog{
		ClientID:   sub.ClientID,
		Platform:   platform,
		HookURL:    sub.HookURL,
		Event:      event,
		StatusCode: statusCode,
		DurationMS: time.Since(start).Milliseconds(),
	}

	switch {
	case err != nil:
		logEntry.Error = err.Error()
		u.logger.Warn("Webhook delivery failed",
			zap.String("platform", platform),
			zap.String("hook_url", sub.HookURL),
			zap.String("event", event),
			zap.Error(err),
		)
	case statusCode == http.StatusGone:
		// 410 is the automation platforms' "this hook was deleted" signal.
		// Deactivate this subscription only; no other status triggers it.
		u.logger.Info("Subscriber returned 410 Gone, deactivating subscription",
			zap.String("platform", platform),
			zap.String("subscription_id", sub.ID),
			zap.String("hook_url", sub.HookURL),
		)
		if err := u.subs.Deactivate(ctx, platform, sub.ID); err != nil {
			u.logger.Error("Failed to deactivate subscription",
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
		}
	case statusCode < 200 || statusCode >= 300:
		logEntry.Error = fmt.Sprintf("unexpected status %d", statusCode)
		u.logger.Warn("Webhook delivery returned non-2xx",
			zap.String("platform", platform),
			zap.String("hook_url", sub.HookURL),
			zap.Int("status", statusCode),
		)
	default:
		u.logger.Debug("Webhook delivered",
			zap.String("platform", platform),
			zap.String("hook_url", sub.HookURL),
			zap.Int("status", statusCode),
		)
	}

	// Delivery history is informational; a write failure is already logged
	// by the repository.
	_ = u.deliveryLog.Save(ctx, logEntry)
}

func (u *dispatchUsecase) post(ctx context.Context, hookURL string, jsonBody []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	// No auth header: the shared secret is the unguessable target URL chosen
	// by the subscribing platform.
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
