package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
	"voicehub/internal/usecase"
)

type mockToolUsecase struct {
	lead     *entity.Lead
	leadErr  error
	slots    []string
	slotsErr error
	booked   bool
}

func (m *mockToolUsecase) CheckAvailability(ctx context.Context, clientID string, date time.Time, slotMinutes int) ([]string, error) {
	return m.slots, m.slotsErr
}

func (m *mockToolUsecase) CreateBooking(ctx context.Context, b *entity.Booking) (bool, error) {
	return m.booked, nil
}

func (m *mockToolUsecase) CreateLead(ctx context.Context, lead *entity.Lead) error {
	return nil
}

func (m *mockToolUsecase) GetLead(ctx context.Context, clientID, id string) (*entity.Lead, error) {
	return m.lead, m.leadErr
}

func (m *mockToolUsecase) ListLeads(ctx context.Context, clientID string, limit int) ([]*entity.Lead, error) {
	return nil, nil
}

func (m *mockToolUsecase) UpdateLead(ctx context.Context, lead *entity.Lead) error {
	return nil
}

func (m *mockToolUsecase) Escalate(ctx context.Context, e *entity.Escalation, notifyNumber string) error {
	return nil
}

func (m *mockToolUsecase) SendSMS(ctx context.Context, clientID, to, body string) error {
	return nil
}

func (m *mockToolUsecase) SendEmail(ctx context.Context, to, subject, body string) error {
	return nil
}

func newToolTestApp(u usecase.ToolUsecase) *fiber.App {
	h := NewToolHandler(u, zap.NewNop())

	app := fiber.New()
	app.Post("/tools/availability", h.CheckAvailability)
	app.Post("/tools/book", h.CreateBooking)
	app.Get("/tools/leads/:id", h.GetLead)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestGetLeadNotFound(t *testing.T) {
	app := newToolTestApp(&mockToolUsecase{})

	status, body := doJSON(t, app, http.MethodGet, "/tools/leads/lead-9?client_id=client-1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "lead not found", body["error"])
}

func TestGetLeadMissingClientID(t *testing.T) {
	app := newToolTestApp(&mockToolUsecase{lead: &entity.Lead{ID: "lead-9"}})

	status, body := doJSON(t, app, http.MethodGet, "/tools/leads/lead-9", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "client_id is required", body["error"])
}

func TestGetLeadInternalError(t *testing.T) {
	app := newToolTestApp(&mockToolUsecase{leadErr: assert.AnError})

	status, body := doJSON(t, app, http.MethodGet, "/tools/leads/lead-9?client_id=client-1", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])
}

func TestCheckAvailabilityStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		usecase    *mockToolUsecase
		body       string
		wantStatus int
	}{
		{
			name:       "bad date",
			usecase:    &mockToolUsecase{},
			body:       `{"client_id":"client-1","date":"June 2nd"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing client id",
			usecase:    &mockToolUsecase{},
			body:       `{"date":"2025-06-02"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "settings missing",
			usecase:    &mockToolUsecase{slotsErr: usecase.ErrSettingsNotFound},
			body:       `{"client_id":"client-1","date":"2025-06-02"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "usecase failure",
			usecase:    &mockToolUsecase{slotsErr: assert.AnError},
			body:       `{"client_id":"client-1","date":"2025-06-02"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "open day",
			usecase:    &mockToolUsecase{slots: []string{"09:00"}},
			body:       `{"client_id":"client-1","date":"2025-06-02"}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newToolTestApp(tt.usecase)
			status, body := doJSON(t, app, http.MethodPost, "/tools/availability", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestCreateBookingConflictKeepsOK(t *testing.T) {
	// A taken slot is a domain outcome, not a request failure: 200 with
	// success=false so the agent relays it conversationally.
	app := newToolTestApp(&mockToolUsecase{booked: false})

	status, body := doJSON(t, app, http.MethodPost, "/tools/book",
		`{"client_id":"client-1","name":"Ada","starts_at":"2025-06-02T09:00:00Z"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}
