package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/database"
)

type callRepository struct {
	db *database.Database
}

func NewCallRepository(db *database.Database) repository.CallRepository {
	return &callRepository{
		db: db,
	}
}

func (r *callRepository) Save(ctx context.Context, call *entity.CallRecord) error {
	query := `
		INSERT INTO call_records (call_id, client_id, from_number, to_number, status, started_at, duration_seconds, summary, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(call_id) DO UPDATE SET
			status = EXCLUDED.status,
			duration_seconds = EXCLUDED.duration_seconds,
			summary = EXCLUDED.summary,
			transcript = EXCLUDED.transcript
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		call.CallID, call.ClientID, call.FromNumber, call.ToNumber, call.Status,
		call.StartedAt, call.DurationS, call.Summary, call.Transcript, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save call record: %w", err)
	}

	return nil
}

func (r *callRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.CallRecord, error) {
	query := `
		SELECT id, call_id, client_id, from_number, to_number, status, started_at, duration_seconds, summary, transcript, created_at
		FROM call_records
		WHERE client_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	defer rows.Close()

	var calls []*entity.CallRecord
	for rows.Next() {
		var call entity.CallRecord
		if err := rows.Scan(
			&call.ID, &call.CallID, &call.ClientID, &call.FromNumber, &call.ToNumber,
			&call.Status, &call.StartedAt, &call.DurationS, &call.Summary, &call.Transcript, &call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call record: %w", err)
		}
		calls = append(calls, &call)
	}

	return calls, rows.Err()
}

type deliveryLogRepository struct {
	db     *database.Database
	logger *zap.Logger
}

func NewDeliveryLogRepository(db *database.Database, logger *zap.Logger) repository.DeliveryLogRepository {
	return &deliveryLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *deliveryLogRepository) Save(ctx context.Context, log *entity.DeliveryLog) error {
	query := `
		INSERT INTO delivery_logs (client_id, platform, hook_url, event, status_code, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		log.ClientID, log.Platform, log.HookURL, log.Event, log.StatusCode, log.Error, log.DurationMS, time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to save delivery log",
			zap.String("hook_url", log.HookURL),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save delivery log: %w", err)
	}

	return nil
}

func (r *deliveryLogRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.DeliveryLog, error) {
	query := `
		SELECT id, client_id, platform, hook_url, event, status_code, error, duration_ms, created_at
		FROM delivery_logs
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.DeliveryLog
	for rows.Next() {
		var log entity.DeliveryLog
		if err := rows.Scan(
			&log.ID, &log.ClientID, &log.Platform, &log.HookURL, &log.Event,
			&log.StatusCode, &log.Error, &log.DurationMS, &log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
