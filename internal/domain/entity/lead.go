package entity

import "time"

// Lead captured by the voice agent mid-call.
type Lead struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	Source    string    `json:"source" db:"source"`
	Notes     string    `json:"notes" db:"notes"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Booking is an appointment created by the agent's booking tool.
type Booking struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Service   string    `json:"service" db:"service"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time `json:"ends_at" db:"ends_at"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Escalation records a mid-call handoff request to a human.
type Escalation struct {
	ID        string    `json:"id" db:"id"`
	ClientID  string    `json:"client_id" db:"client_id"`
	CallID    string    `json:"call_id" db:"call_id"`
	Reason    string    `json:"reason" db:"reason"`
	Caller    string    `json:"caller" db:"caller"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
