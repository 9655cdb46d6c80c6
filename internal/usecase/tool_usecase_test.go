package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
)

type mockSettingsRepo struct {
	settings *entity.BusinessSettings
	upserted *entity.BusinessSettings
}

func (m *mockSettingsRepo) FindByClient(ctx context.Context, clientID string) (*entity.BusinessSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, s *entity.BusinessSettings) error {
	m.upserted = s
	return nil
}

type mockBookingRepo struct {
	bookings []*entity.Booking
	created  []*entity.Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	m.created = append(m.created, b)
	return nil
}

func (m *mockBookingRepo) ListBetween(ctx context.Context, clientID string, from, to time.Time) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range m.bookings {
		if b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockLeadRepo struct {
	leads map[string]*entity.Lead
}

func (m *mockLeadRepo) Create(ctx context.Context, lead *entity.Lead) error {
	if m.leads == nil {
		m.leads = map[string]*entity.Lead{}
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *mockLeadRepo) FindByID(ctx context.Context, clientID, id string) (*entity.Lead, error) {
	return m.leads[id], nil
}

func (m *mockLeadRepo) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error) {
	var out []*entity.Lead
	for _, l := range m.leads {
		out = append(out, l)
	}
	return out, nil
}

func (m *mockLeadRepo) Update(ctx context.Context, lead *entity.Lead) error {
	m.leads[lead.ID] = lead
	return nil
}

type mockEscalationRepo struct {
	created []*entity.Escalation
}

func (m *mockEscalationRepo) Create(ctx context.Context, e *entity.Escalation) error {
	m.created = append(m.created, e)
	return nil
}

// mondaySettings opens Monday 09:00-12:00 and closes the rest of the week.
func mondaySettings() *entity.BusinessSettings {
	return &entity.BusinessSettings{
		ClientID: "client-1",
		Hours:    `[{"day":"Monday","open":"09:00","close":"12:00"}]`,
	}
}

func newTestToolUsecase(settings *mockSettingsRepo, bookings *mockBookingRepo, leads *mockLeadRepo, escalations *mockEscalationRepo) ToolUsecase {
	return NewToolUsecase(settings, bookings, leads, escalations, nil, nil, zap.NewNop())
}

func TestCheckAvailabilityOpenDay(t *testing.T) {
	u := newTestToolUsecase(&mockSettingsRepo{settings: mondaySettings()}, &mockBookingRepo{}, &mockLeadRepo{}, &mockEscalationRepo{})

	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	slots, err := u.CheckAvailability(context.Background(), "client-1", monday, 60)
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slots)
}

func TestCheckAvailabilityExcludesBookedSlots(t *testing.T) {
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bookings := &mockBookingRepo{bookings: []*entity.Booking{
		{
			ClientID: "client-1",
			StartsAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		},
	}}
	u := newTestToolUsecase(&mockSettingsRepo{settings: mondaySettings()}, bookings, &mockLeadRepo{}, &mockEscalationRepo{})

	slots, err := u.CheckAvailability(context.Background(), "client-1", monday, 60)
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "11:00"}, slots)
}

func TestCheckAvailabilityClosedDay(t *testing.T) {
	u := newTestToolUsecase(&mockSettingsRepo{settings: mondaySettings()}, &mockBookingRepo{}, &mockLeadRepo{}, &mockEscalationRepo{})

	tuesday := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	slots, err := u.CheckAvailability(context.Background(), "client-1", tuesday, 60)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCheckAvailabilityNoSettings(t *testing.T) {
	u := newTestToolUsecase(&mockSettingsRepo{}, &mockBookingRepo{}, &mockLeadRepo{}, &mockEscalationRepo{})

	_, err := u.CheckAvailability(context.Background(), "client-1", time.Now(), 30)
	assert.Error(t, err)
}

func TestCreateBooking(t *testing.T) {
	bookings := &mockBookingRepo{}
	u := newTestToolUsecase(&mockSettingsRepo{settings: mondaySettings()}, bookings, &mockLeadRepo{}, &mockEscalationRepo{})

	created, err := u.CreateBooking(context.Background(), &entity.Booking{
		ClientID: "client-1",
		Name:     "Ada",
		StartsAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, bookings.created, 1)
	assert.NotEmpty(t, bookings.created[0].ID)
}

func TestCreateBookingConflict(t *testing.T) {
	bookings := &mockBookingRepo{bookings: []*entity.Booking{
		{
			ClientID: "client-1",
			StartsAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
		},
	}}
	u := newTestToolUsecase(&mockSettingsRepo{settings: mondaySettings()}, bookings, &mockLeadRepo{}, &mockEscalationRepo{})

	created, err := u.CreateBooking(context.Background(), &entity.Booking{
		ClientID: "client-1",
		Name:     "Ada",
		StartsAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, bookings.created)
}

func TestCreateLeadDefaults(t *testing.T) {
	leads := &mockLeadRepo{}
	u := newTestToolUsecase(&mockSettingsRepo{}, &mockBookingRepo{}, leads, &mockEscalationRepo{})

	lead := &entity.Lead{ClientID: "client-1", Name: "Ada", Phone: "+15550001111"}
	require.NoError(t, u.CreateLead(context.Background(), lead))

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "new", lead.Status)
}

func TestEscalateWithoutNotification(t *testing.T) {
	escalations := &mockEscalationRepo{}
	u := newTestToolUsecase(&mockSettingsRepo{}, &mockBookingRepo{}, &mockLeadRepo{}, escalations)

	e := &entity.Escalation{ClientID: "client-1", CallID: "call-42", Reason: "asked for a human"}
	require.NoError(t, u.Escalate(context.Background(), e, ""))

	require.Len(t, escalations.created, 1)
	assert.NotEmpty(t, escalations.created[0].ID)
}
