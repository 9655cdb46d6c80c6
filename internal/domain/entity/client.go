package entity

import "time"

// Client is a tenant business using the platform's AI agent.
type Client struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SystemPrompt string    `json:"system_prompt,omitempty" db:"system_prompt"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessSettings holds the configuration surface that feeds prompt
// regeneration. Hours, Services and FAQs are stored as JSON.
type BusinessSettings struct {
	ClientID     string    `json:"client_id" db:"client_id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	Description  string    `json:"description" db:"description"`
	Greeting     string    `json:"greeting" db:"greeting"`
	Timezone     string    `json:"timezone" db:"timezone"`
	Hours        string    `json:"hours" db:"hours"`
	Services     string    `json:"services" db:"services"`
	FAQs         string    `json:"faqs" db:"faqs"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessHour is one entry of the Hours JSON array.
type BusinessHour struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Service is one entry of the Services JSON array.
type Service struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DurationMin int    `json:"duration_minutes"`
	Price       string `json:"price,omitempty"`
}

// FAQ is one entry of the FAQs JSON array.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HookAPIKey authenticates external automation platforms on the
// subscribe/unsubscribe surface. Only the hash of the secret is stored.
type HookAPIKey struct {
	ID        int64     `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	KeyHash   string    `json:"-" db:"key_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
