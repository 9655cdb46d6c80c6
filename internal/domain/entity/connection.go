package entity

import "time"

// Connection status constants
const (
	ConnectionStatusActive  = "active"
	ConnectionStatusInvalid = "invalid" // refresh token rejected, re-authorization required
)

// OAuthConnection represents a stored OAuth grant for a (client, provider) pair.
// AccessToken and RefreshToken are encrypted at rest by the credential vault.
type OAuthConnection struct {
	ID           int64     `json:"id" db:"id"`
	ClientID     string    `json:"client_id" db:"client_id"`
	Provider     string    `json:"provider" db:"provider"`
	AccountLabel string    `json:"account_label" db:"account_label"` // email or account name from the provider's identity endpoint
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	Scope        string    `json:"scope" db:"scope"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	Metadata     string    `json:"metadata,omitempty" db:"metadata"` // provider-specific JSON (instance URL, selected calendar id, ...)
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ConnectionStatusResponse is returned to the portal when listing integrations.
type ConnectionStatusResponse struct {
	Provider     string    `json:"provider"`
	Connected    bool      `json:"connected"`
	AccountLabel string    `json:"account_label,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	NeedsReauth  bool      `json:"needs_reauth"`
}
