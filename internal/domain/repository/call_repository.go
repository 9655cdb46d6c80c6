package repository

import (
	"context"

	"voicehub/internal/domain/entity"
)

type CallRepository interface {
	Save(ctx context.Context, call *entity.CallRecord) error
	ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.CallRecord, error)
}

type DeliveryLogRepository interface {
	Save(ctx context.Context, log *entity.DeliveryLog) error
	ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.DeliveryLog, error)
}
