package agent

import (
	"go.uber.org/fx"

	"voicehub/internal/infrastructure/oauth"
)

var Module = fx.Module("agent",
	fx.Provide(
		NewClient,
		fx.Annotate(
			func(c *Client) *Client { return c },
			fx.As(new(oauth.ToolRegistrar)),
		),
	),
)
