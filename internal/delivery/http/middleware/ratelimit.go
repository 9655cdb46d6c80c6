package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
	"voicehub/internal/infrastructure/redis"
)

// ToolRateLimit applies a fixed-window per-client limit to the tool
// endpoints. Redis failures let the request through; throttling is
// protection, not a gate.
func ToolRateLimit(cfg *config.Config, redisClient *redis.RedisClient, logger *zap.Logger) fiber.Handler {
	window := time.Duration(cfg.Tools.RateWindowSec) * time.Second

	return func(c *fiber.Ctx) error {
		clientID := c.Query("client_id")
		if clientID == "" {
			clientID = c.IP()
		}

		key := fmt.Sprintf("voicehub:ratelimit:tools:%s", clientID)
		count, err := redisClient.IncrWithWindow(c.UserContext(), key, window)
		if err != nil {
			logger.Warn("Rate limit check failed", zap.Error(err))
			return c.Next()
		}

		if count > int64(cfg.Tools.RateLimit) {
			logger.Warn("Tool request throttled",
				zap.String("client_id", clientID),
				zap.Int64("count", count),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(entity.NewToolError("rate limit exceeded"))
		}

		return c.Next()
	}
}
