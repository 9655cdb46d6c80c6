package entity

import "time"

// ClientAutomation is one enabled recipe for a client. A recipe is a named
// integration template bound to a provider; Config carries the
// provider-specific parameters (spreadsheet id, channel id, ...).
type ClientAutomation struct {
	ID        int64     `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Recipe    string    `json:"recipe" db:"recipe"`
	Provider  string    `json:"provider" db:"provider"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	Config    string    `json:"config" db:"config"` // JSON blob
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
