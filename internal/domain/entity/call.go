package entity

import "time"

// CallRecord is a completed call reported by the conversational-AI provider.
type CallRecord struct {
	ID         int64     `json:"id" db:"id"`
	CallID     string    `json:"call_id" db:"call_id"`
	ClientID   string    `json:"client_id" db:"client_id"`
	FromNumber string    `json:"from_number" db:"from_number"`
	ToNumber   string    `json:"to_number" db:"to_number"`
	Status     string    `json:"status" db:"status"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	DurationS  int       `json:"duration_seconds" db:"duration_seconds"`
	Summary    string    `json:"summary" db:"summary"`
	Transcript string    `json:"transcript,omitempty" db:"transcript"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CallCompletedPayload is the inbound post-call webhook body.
type CallCompletedPayload struct {
	CallID     string `json:"call_id"`
	ClientID   string `json:"client_id"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
	Status     string `json:"status"`
	StartedAt  string `json:"started_at"`
	DurationS  int    `json:"duration_seconds"`
	Summary    string `json:"summary"`
	Transcript string `json:"transcript"`
}
