package usecase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
	"voicehub/internal/infrastructure/oauth"
)

type mockTokenService struct {
	token      string
	tokenErr   error
	requested  []string
	disconnect int
}

func (m *mockTokenService) BuildAuthURL(clientID string, provider oauth.Provider, redirectPath string) (string, error) {
	return "", nil
}

func (m *mockTokenService) GetValidToken(ctx context.Context, clientID string, provider oauth.Provider) (string, error) {
	m.requested = append(m.requested, provider.String())
	return m.token, m.tokenErr
}

func (m *mockTokenService) CompleteFlow(ctx context.Context, state, code string) (*oauth.FlowResult, error) {
	return nil, nil
}

func (m *mockTokenService) Disconnect(ctx context.Context, clientID string, provider oauth.Provider) error {
	m.disconnect++
	return nil
}

func newTestAutomationUsecase(t *testing.T, tokens *mockTokenService) *automationUsecase {
	t.Helper()
	cfg := &config.Config{Tools: config.ToolsConfig{Timeout: 5 * time.Second}}
	u, ok := NewAutomationUsecase(cfg, tokens, zap.NewNop()).(*automationUsecase)
	require.True(t, ok)
	return u
}

func testCall() *entity.CallRecord {
	return &entity.CallRecord{
		CallID:     "call-42",
		ClientID:   "client-1",
		FromNumber: "+15550001111",
		ToNumber:   "+15550002222",
		Status:     "completed",
		StartedAt:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		DurationS:  95,
		Summary:    "Caller asked about pricing",
	}
}

func TestExecuteAppendsSheetRow(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &mockTokenService{token: "sheets-token"}
	u := newTestAutomationUsecase(t, tokens)
	u.sheetsBaseURL = srv.URL

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "call-log-to-sheet",
		Provider: "google-sheets",
		Config:   `{"spreadsheet_id":"abc123"}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	require.NoError(t, err)

	// Sheets rides on the client's base Google grant
	assert.Equal(t, []string{"google"}, tokens.requested)
	assert.Equal(t, "/v4/spreadsheets/abc123/values/Sheet1!A:I:append", gotPath)
	assert.Equal(t, "Bearer sheets-token", gotAuth)

	values, ok := gotBody["values"].([]interface{})
	require.True(t, ok)
	require.Len(t, values, 1)
	row, ok := values[0].([]interface{})
	require.True(t, ok)
	require.Len(t, row, 7)
	assert.Equal(t, "2025-06-01T14:30:00Z", row[0])
	assert.Equal(t, "call-42", row[6])
}

func TestExecuteSheetsMissingSpreadsheetID(t *testing.T) {
	u := newTestAutomationUsecase(t, &mockTokenService{token: "x"})

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "call-log-to-sheet",
		Provider: "google-sheets",
		Config:   `{}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	assert.ErrorContains(t, err, "spreadsheet_id")
}

func TestExecutePostsSlackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat.postMessage", r.URL.Path)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	u := newTestAutomationUsecase(t, &mockTokenService{token: "slack-token"})
	u.slackBaseURL = srv.URL

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "call-summary-to-slack",
		Provider: "slack",
		Config:   `{"channel_id":"C012345"}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	assert.NoError(t, err)
}

func TestExecuteSlackInBandError(t *testing.T) {
	// Slack reports failures with HTTP 200 and ok=false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	u := newTestAutomationUsecase(t, &mockTokenService{token: "slack-token"})
	u.slackBaseURL = srv.URL

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "call-summary-to-slack",
		Provider: "slack",
		Config:   `{"channel_id":"C012345"}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestExecuteHubSpotCreatesContactAndNote(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"id":"contact-7"}`))
	}))
	defer srv.Close()

	u := newTestAutomationUsecase(t, &mockTokenService{token: "hubspot-token"})
	u.hubspotBaseURL = srv.URL

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "caller-to-hubspot",
		Provider: "hubspot",
		Config:   `{}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	require.NoError(t, err)
	assert.Equal(t, []string{"/crm/v3/objects/contacts", "/crm/v3/objects/notes"}, paths)
}

func TestExecuteSchedulingProvidersAreNoOps(t *testing.T) {
	tokens := &mockTokenService{token: "unused"}
	u := newTestAutomationUsecase(t, tokens)

	for _, provider := range []string{"google-calendar", "calendly", "gohighlevel"} {
		automation := &entity.ClientAutomation{
			ClientID: "client-1",
			Recipe:   "schedule",
			Provider: provider,
			Config:   `{}`,
		}
		err := u.Execute(context.Background(), automation, testCall())
		assert.NoError(t, err, provider)
	}

	// No token fetches, no network activity
	assert.Empty(t, tokens.requested)
}

func TestExecuteUnknownProvider(t *testing.T) {
	u := newTestAutomationUsecase(t, &mockTokenService{})

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "mystery",
		Provider: "fax-machine",
		Config:   `{}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	assert.ErrorContains(t, err, "unknown native provider")
}

func TestExecuteTokenFailurePropagates(t *testing.T) {
	u := newTestAutomationUsecase(t, &mockTokenService{tokenErr: oauth.ErrReauthorizationRequired})

	automation := &entity.ClientAutomation{
		ClientID: "client-1",
		Recipe:   "call-summary-to-slack",
		Provider: "slack",
		Config:   `{"channel_id":"C012345"}`,
	}

	err := u.Execute(context.Background(), automation, testCall())
	assert.ErrorIs(t, err, oauth.ErrReauthorizationRequired)
}
