package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/domain/repository"
	"voicehub/internal/infrastructure/notify"
)

// ErrSettingsNotFound means the client has no business-settings row yet, so
// hours-dependent tools cannot answer.
var ErrSettingsNotFound = errors.New("business settings not found")

// ToolUsecase backs the endpoints the voice agent calls mid-call: availability
// lookup, booking, lead capture, escalation, SMS and email.
type ToolUsecase interface {
	// CheckAvailability returns open slots for a date, derived from business
	// hours minus existing bookings.
	CheckAvailability(ctx context.Context, clientID string, date time.Time, slotMinutes int) ([]string, error)

	// CreateBooking books a slot; returns the booking and false when the slot
	// conflicts with an existing one.
	CreateBooking(ctx context.Context, b *entity.Booking) (bool, error)

	CreateLead(ctx context.Context, lead *entity.Lead) error
	GetLead(ctx context.Context, clientID, id string) (*entity.Lead, error)
	ListLeads(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error)
	UpdateLead(ctx context.Context, lead *entity.Lead) error

	// Escalate records the handoff and notifies the business by SMS.
	Escalate(ctx context.Context, e *entity.Escalation, notifyNumber string) error

	SendSMS(ctx context.Context, clientID, to, body string) error
	SendEmail(ctx context.Context, to, subject, body string) error
}

type toolUsecase struct {
	settings    repository.SettingsRepository
	bookings    repository.BookingRepository
	leads       repository.LeadRepository
	escalations repository.EscalationRepository
	twilio      *notify.TwilioClient
	email       *notify.EmailClient
	logger      *zap.Logger
}

func NewToolUsecase(
	settings repository.SettingsRepository,
	bookings repository.BookingRepository,
	leads repository.LeadRepository,
	escalations repository.EscalationRepository,
	twilio *notify.TwilioClient,
	email *notify.EmailClient,
	logger *zap.Logger,
) ToolUsecase {
	return &toolUsecase{
		settings:    settings,
		bookings:    bookings,
		leads:       leads,
		escalations: escalations,
		twilio:      twilio,
		email:       email,
		logger:      logger,
	}
}

func (u *toolUsecase) CheckAvailability(ctx context.Context, clientID string, date time.Time, slotMinutes int) ([]string, error) {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}

	settings, err := u.settings.FindByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("%w for client %s", ErrSettingsNotFound, clientID)
	}

	var hours []entity.BusinessHour
	if err := json.Unmarshal([]byte(settings.Hours), &hours); err != nil {
		return nil, fmt.Errorf("invalid business hours: %w", err)
	}

	open, close_, ok := hoursFor(hours, date.Weekday())
	if !ok {
		return []string{}, nil // closed that day
	}

	dayStart, err := atClock(date, open)
	if err != nil {
		return nil, fmt.Errorf("invalid opening time: %w", err)
	}
	dayEnd, err := atClock(date, close_)
	if err != nil {
		return nil, fmt.Errorf("invalid closing time: %w", err)
	}

	booked, err := u.bookings.ListBetween(ctx, clientID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	slot := time.Duration(slotMinutes) * time.Minute
	var free []string
	for t := dayStart; t.Add(slot).Before(dayEnd) || t.Add(slot).Equal(dayEnd); t = t.Add(slot) {
		if !overlapsAny(booked, t, t.Add(slot)) {
			free = append(free, t.Format("15:04"))
		}
	}

	return free, nil
}

func (u *toolUsecase) CreateBooking(ctx context.Context, b *entity.Booking) (bool, error) {
	existing, err := u.bookings.ListBetween(ctx, b.ClientID, b.StartsAt, b.EndsAt)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := u.bookings.Create(ctx, b); err != nil {
		return false, err
	}

	u.logger.Info("Booking created",
		zap.String("client_id", b.ClientID),
		zap.String("booking_id", b.ID),
		zap.Time("starts_at", b.StartsAt),
	)

	return true, nil
}

func (u *toolUsecase) CreateLead(ctx context.Context, lead *entity.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	return u.leads.Create(ctx, lead)
}

func (u *toolUsecase) GetLead(ctx context.Context, clientID, id string) (*entity.Lead, error) {
	return u.leads.FindByID(ctx, clientID, id)
}

func (u *toolUsecase) ListLeads(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return u.leads.ListByClient(ctx, clientID, limit)
}

func (u *toolUsecase) UpdateLead(ctx context.Context, lead *entity.Lead) error {
	return u.leads.Update(ctx, lead)
}

func (u *toolUsecase) Escalate(ctx context.Context, e *entity.Escalation, notifyNumber string) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := u.escalations.Create(ctx, e); err != nil {
		return err
	}

	// SMS notification is best-effort; the escalation record is the primary
	// operation.
	if notifyNumber != "" {
		msg := fmt.Sprintf("Escalation from caller %s: %s", e.Caller, e.Reason)
		if err := u.twilio.SendSMS(ctx, e.ClientID, notifyNumber, msg); err != nil {
			u.logger.Warn("Failed to send escalation SMS",
				zap.String("client_id", e.ClientID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (u *toolUsecase) SendSMS(ctx context.Context, clientID, to, body string) error {
	return u.twilio.SendSMS(ctx, clientID, to, body)
}

func (u *toolUsecase) SendEmail(ctx context.Context, to, subject, body string) error {
	return u.email.SendEmail(ctx, to, subject, body)
}

func hoursFor(hours []entity.BusinessHour, day time.Weekday) (string, string, bool) {
	name := day.String()
	for _, h := range hours {
		if h.Day == name && h.Open != "" && h.Close != "" {
			return h.Open, h.Close, true
		}
	}
	return "", "", false
}

// atClock returns the date with the wall clock set from "HH:MM".
func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func overlapsAny(booked []*entity.Booking, start, end time.Time) bool {
	for _, b := range booked {
		if b.StartsAt.Before(end) && b.EndsAt.After(start) {
			return true
		}
	}
	return false
}
