package main

import (
	"go.uber.org/fx"

	"voicehub/internal/config"
	deliveryhttp "voicehub/internal/delivery/http"
	"voicehub/internal/infrastructure/agent"
	"voicehub/internal/infrastructure/database"
	"voicehub/internal/infrastructure/logger"
	"voicehub/internal/infrastructure/notify"
	"voicehub/internal/infrastructure/oauth"
	"voicehub/internal/infrastructure/redis"
	"voicehub/internal/infrastructure/repository"
	"voicehub/internal/infrastructure/vault"
	"voicehub/internal/server"
	"voicehub/internal/usecase"
)

func main() {
	fx.New(
		// Configuration
		config.Module,

		// Infrastructure
		logger.Module,
		database.Module,
		redis.Module,
		vault.Module,
		oauth.Module,
		agent.Module,
		notify.Module,
		repository.Module,

		// Business Logic
		usecase.Module,

		// Delivery
		deliveryhttp.Module,

		// Server
		server.Module,
	).Run()
}
