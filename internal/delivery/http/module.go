package http

import (
	"go.uber.org/fx"

	"voicehub/internal/delivery/http/handler"
	"voicehub/internal/delivery/http/router"
)

var Module = fx.Module("http",
	fx.Provide(
		handler.NewHealthHandler,
		handler.NewOAuthHandler,
		handler.NewToolHandler,
		handler.NewHooksHandler,
		handler.NewWebhookHandler,
		handler.NewPortalHandler,
		router.NewRouter,
	),
)
