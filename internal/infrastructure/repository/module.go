package repository

import "go.uber.org/fx"

var Module = fx.Module("repository",
	fx.Provide(
		NewConnectionRepository,
		NewSubscriptionRepository,
		NewAutomationRepository,
		NewLeadRepository,
		NewBookingRepository,
		NewEscalationRepository,
		NewCallRepository,
		NewDeliveryLogRepository,
		NewClientRepository,
		NewSettingsRepository,
		NewHookAPIKeyRepository,
	),
)
