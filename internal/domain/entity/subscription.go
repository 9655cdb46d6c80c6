package entity

import "time"

// Hook platform identifiers. Each platform registers subscriptions in its own
// table but shares delivery semantics.
const (
	HookPlatformZapier = "zapier"
	HookPlatformMake   = "make"
	HookPlatformN8N    = "n8n"
)

// Event names dispatched to external automation platforms
const (
	EventCallCompleted = "call.completed"
	EventLeadCreated   = "lead.created"
	EventBookingMade   = "booking.created"
)

// WebhookSubscription is one externally-registered callback URL for a
// (client, event) pair. Created by an automation platform's subscribe call,
// deactivated when delivery receives HTTP 410.
type WebhookSubscription struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	HookURL   string    `json:"hook_url" db:"hook_url"`
	Event     string    `json:"event" db:"event"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubscribeRequest is the platform-facing subscribe payload.
type SubscribeRequest struct {
	HookURL string `json:"hookUrl"`
	Event   string `json:"event"`
}
