package server

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/delivery/http/router"
)

// Start registers the fiber app with the fx lifecycle: listen on startup,
// graceful shutdown on stop.
func Start(lc fx.Lifecycle, r *router.Router, cfg *config.Config, logger *zap.Logger) {
	app := r.Setup()
	addr := fmt.Sprintf(":%d", cfg.App.Port)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("HTTP server starting",
					zap.String("addr", addr),
					zap.String("env", cfg.App.Env),
				)
				if err := app.Listen(addr); err != nil {
					logger.Error("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("HTTP server shutting down")
			return app.ShutdownWithContext(ctx)
		},
	})
}
