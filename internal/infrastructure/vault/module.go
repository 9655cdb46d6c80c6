package vault

import "go.uber.org/fx"

var Module = fx.Module("vault",
	fx.Provide(NewVault),
)
