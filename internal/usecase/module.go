package usecase

import "go.uber.org/fx"

var Module = fx.Module("usecase",
	fx.Provide(
		NewDispatchUsecase,
		NewAutomationUsecase,
		NewOAuthUsecase,
		NewToolUsecase,
		NewHooksUsecase,
		NewPostCallUsecase,
		NewPromptUsecase,
	),
)
