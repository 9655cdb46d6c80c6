package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/agent"
	"voicehub/internal/infrastructure/redis"
)

const promptCacheKeyPrefix = "voicehub:prompt:"

// PromptUsecase regenerates a client's agent system prompt from its business
// settings and pushes it to the conversational-AI provider.
type PromptUsecase interface {
	// SaveSettings persists a settings write and triggers regeneration in the
	// background. Regeneration failure never fails the settings write.
	SaveSettings(ctx context.Context, settings *entity.BusinessSettings) error

	// Regenerate rebuilds and stores the system prompt for a client.
	Regenerate(ctx context.Context, clientID string) (string, error)
}

type promptUsecase struct {
	settings repository.SettingsRepository
	clients  repository.ClientRepository
	agent    *agent.Client
	redis    *redis.RedisClient
	logger   *zap.Logger
}

func NewPromptUsecase(
	settings repository.SettingsRepository,
	clients repository.ClientRepository,
	agentClient *agent.Client,
	redisClient *redis.RedisClient,
	logger *zap.Logger,
) PromptUsecase {
	return &promptUsecase{
		settings: settings,
		clients:  clients,
		agent:    agentClient,
		redis:    redisClient,
		logger:   logger,
	}
}

func (u *promptUsecase) SaveSettings(ctx context.Context, settings *entity.BusinessSettings) error {
	if err := u.settings.Upsert(ctx, settings); err != nil {
		return err
	}

	// Regeneration runs detached so the settings write returns immediately.
	clientID := settings.ClientID
	go func() {
		defer func() {
			if r := recover(); r != nil {
				u.logger.Error("Prompt regeneration panicked",
					zap.String("client_id", clientID),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := u.Regenerate(ctx, clientID); err != nil {
			u.logger.Error("Prompt regeneration failed",
				zap.String("client_id", clientID),
				zap.Error(err),
			)
		}
	}()

	return nil
}

func (u *promptUsecase) Regenerate(ctx context.Context, clientID string) (string, error) {
	settings, err := u.settings.FindByClient(ctx, clientID)
	if err != nil {
		return "", err
	}
	if settings == nil {
		return "", fmt.Errorf("business settings not found for client %s", clientID)
	}

	prompt, err := buildPrompt(settings)
	if err != nil {
		return "", err
	}

	if err := u.clients.UpdateSystemPrompt(ctx, clientID, prompt); err != nil {
		return "", err
	}

	// Cache a snapshot for cheap reads by the portal
	cacheKey := promptCacheKeyPrefix + clientID
	if err := u.redis.Set(ctx, cacheKey, prompt, 24*time.Hour); err != nil {
		u.logger.Warn("Failed to cache prompt snapshot",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
	}

	// Push to the agent platform; best-effort, the stored prompt is the
	// source of truth.
	if err := u.agent.UpdatePrompt(ctx, clientID, prompt); err != nil {
		u.logger.Warn("Failed to push prompt to agent platform",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
	}

	u.logger.Info("System prompt regenerated",
		zap.String("client_id", clientID),
		zap.Int("length", len(prompt)),
	)

	return prompt, nil
}

func buildPrompt(s *entity.BusinessSettings) (string, error) {
	var hours []entity.BusinessHour
	if err := json.Unmarshal([]byte(s.Hours), &hours); err != nil {
		return "", fmt.Errorf("invalid hours: %w", err)
	}
	var services []entity.Service
	if err := json.Unmarshal([]byte(s.Services), &services); err != nil {
		return "", fmt.Errorf("invalid services: %w", err)
	}
	var faqs []entity.FAQ
	if err := json.Unmarshal([]byte(s.FAQs), &faqs); err != nil {
		return "", fmt.Errorf("invalid faqs: %w", err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are the virtual receptionist for %s.\n", s.BusinessName)
	if s.Description != "" {
		fmt.Fprintf(&b, "About the business: %s\n", s.Description)
	}
	if s.Greeting != "" {
		fmt.Fprintf(&b, "Greet callers with: %q\n", s.Greeting)
	}
	fmt.Fprintf(&b, "The business operates in the %s timezone.\n", s.Timezone)

	if len(hours) > 0 {
		b.WriteString("\nBusiness hours:\n")
		for _, h := range hours {
			fmt.Fprintf(&b, "- %s: %s to %s\n", h.Day, h.Open, h.Close)
		}
	}

	if len(services) > 0 {
		b.WriteString("\nServices offered:\n")
		for _, svc := range services {
			line := fmt.Sprintf("- %s (%d minutes)", svc.Name, svc.DurationMin)
			if svc.Price != "" {
				line += fmt.Sprintf(", %s", svc.Price)
			}
			if svc.Description != "" {
				line += ": " + svc.Description
			}
			b.WriteString(line + "\n")
		}
	}

	if len(faqs) > 0 {
		b.WriteString("\nFrequently asked questions:\n")
		for _, f := range faqs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", f.Question, f.Answer)
		}
	}

	b.WriteString("\nWhen the caller wants an appointment, check availability before booking. ")
	b.WriteString("Capture the caller's name and phone number as a lead when they show interest. ")
	b.WriteString("If you cannot help, escalate to a human.")

	return b.String(), nil
}
