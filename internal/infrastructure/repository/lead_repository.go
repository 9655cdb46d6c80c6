package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/database"
)

type leadRepository struct {
	db *database.Database
}

func NewLeadRepository(db *database.Database) repository.LeadRepository {
	return &leadRepository{
		db: db,
	}
}

func (r *leadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, client_id, name, phone, email, source, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		lead.ID, lead.ClientID, lead.Name, lead.Phone, lead.Email, lead.Source, lead.Notes, lead.Status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

func (r *leadRepository) FindByID(ctx context.Context, clientID, id string) (*entity.Lead, error) {
	query := `
		SELECT id, client_id, name, phone, email, source, notes, status, created_at, updated_at
		FROM leads
		WHERE client_id = $1 AND id = $2
	`

	var lead entity.Lead
	err := r.db.DB.QueryRowContext(ctx, query, clientID, id).Scan(
		&lead.ID, &lead.ClientID, &lead.Name, &lead.Phone, &lead.Email,
		&lead.Source, &lead.Notes, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}

	return &lead, nil
}

func (r *leadRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error) {
	query := `
		SELECT id, client_id, name, phone, email, source, notes, status, created_at, updated_at
		FROM leads
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		var lead entity.Lead
		if err := rows.Scan(
			&lead.ID, &lead.ClientID, &lead.Name, &lead.Phone, &lead.Email,
			&lead.Source, &lead.Notes, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, &lead)
	}

	return leads, rows.Err()
}

func (r *leadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	query := `
		UPDATE leads
		SET name = $1, phone = $2, email = $3, notes = $4, status = $5, updated_at = $6
		WHERE client_id = $7 AND id = $8
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		lead.Name, lead.Phone, lead.Email, lead.Notes, lead.Status, time.Now(), lead.ClientID, lead.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	return nil
}

type bookingRepository struct {
	db *database.Database
}

func NewBookingRepository(db *database.Database) repository.BookingRepository {
	return &bookingRepository{
		db: db,
	}
}

func (r *bookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, name, phone, service, starts_at, ends_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		b.ID, b.ClientID, b.Name, b.Phone, b.Service, b.StartsAt, b.EndsAt, b.Notes, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) ListBetween(ctx context.Context, clientID string, from, to time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT id, client_id, name, phone, service, starts_at, ends_at, notes, created_at
		FROM bookings
		WHERE client_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var b entity.Booking
		if err := rows.Scan(
			&b.ID, &b.ClientID, &b.Name, &b.Phone, &b.Service,
			&b.StartsAt, &b.EndsAt, &b.Notes, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, rows.Err()
}

type escalationRepository struct {
	db *database.Database
}

func NewEscalationRepository(db *database.Database) repository.EscalationRepository {
	return &escalationRepository{
		db: db,
	}
}

func (r *escalationRepository) Create(ctx context.Context, e *entity.Escalation) error {
	query := `
		INSERT INTO escalations (id, client_id, call_id, reason, caller, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.DB.ExecContext(ctx, query, e.ID, e.ClientID, e.CallID, e.Reason, e.Caller, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create escalation: %w", err)
	}

	return nil
}
