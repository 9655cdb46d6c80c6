package repository

import (
	"context"
	"time"

	"voicehub/internal/domain/entity"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, clientID, id string) (*entity.Lead, error)
	ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error)
	Update(ctx context.Context, lead *entity.Lead) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *entity.Booking) error
	// ListBetween returns bookings overlapping [from, to) for availability checks.
	ListBetween(ctx context.Context, clientID string, from, to time.Time) ([]*entity.Booking, error)
}

type EscalationRepository interface {
	Create(ctx context.Context, e *entity.Escalation) error
}
