package entity

import "time"

// DeliveryLog records one outbound webhook delivery attempt, for the admin
// console's delivery history view.
type DeliveryLog struct {
	ID         int64     `json:"id" db:"id"`
	ClientID   string    `json:"client_id" db:"client_id"`
	Platform   string    `json:"platform" db:"platform"`
	HookURL    string    `json:"hook_url" db:"hook_url"`
	Event      string    `json:"event" db:"event"`
	StatusCode int       `json:"status_code" db:"status_code"` // 0 when the request never completed
	Error      string    `json:"error,omitempty" db:"error"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
