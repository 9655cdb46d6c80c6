package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
	"voicehub/internal/usecase"
)

const hookClientIDKey = "hook_client_id"

// ToolAuth authorizes the agent-facing tool endpoints with the shared bearer
// secret configured for the conversational-AI platform.
func ToolAuth(cfg *config.Config, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Tools.Secret)) != 1 {
			logger.Warn("Tool request rejected", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(entity.NewToolError("unauthorized"))
		}
		return c.Next()
	}
}

// HookAuth authorizes the REST-hook surface with the per-client API key
// presented in X-Api-Key, and stores the resolved client id in locals.
func HookAuth(hooksUsecase usecase.HooksUsecase, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get("X-Api-Key")
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(
				entity.NewErrorResponse("UNAUTHORIZED", "X-Api-Key header is required"),
			)
		}

		clientID, err := hooksUsecase.VerifyKey(c.UserContext(), apiKey)
		if err != nil {
			logger.Warn("Hook request rejected", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(
				entity.NewErrorResponse("UNAUTHORIZED", "Invalid API key"),
			)
		}

		c.Locals(hookClientIDKey, clientID)
		return c.Next()
	}
}

// HookClientID returns the client id resolved by HookAuth.
func HookClientID(c *fiber.Ctx) string {
	id, _ := c.Locals(hookClientIDKey).(string)
	return id
}
