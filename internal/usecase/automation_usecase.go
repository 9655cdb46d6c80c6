package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
	"voicehub/internal/infrastructure/oauth"
)

// AutomationUsecase runs one client automation recipe against a completed
// call record: exactly one side-effecting write to the connected provider.
type AutomationUsecase interface {
	// Execute runs a single automation. Calendar/scheduling providers are
	// explicit no-ops here: those integrations act synchronously during the
	// call through tool endpoints, not after the fact. An unregistered
	// provider is a hard error, surfacing misconfigured recipes immediately.
	Execute(ctx context.Context, automation *entity.ClientAutomation, call *entity.CallRecord) error
}

type automationUsecase struct {
	tokens     oauth.TokenService
	logger     *zap.Logger
	httpClient *http.Client

	// Provider API bases, overridable in tests
	sheetsBaseURL  string
	slackBaseURL   string
	hubspotBaseURL string
}

func NewAutomationUsecase(cfg *config.Config, tokens oauth.TokenService, logger *zap.Logger) AutomationUsecase {
	return &automationUsecase{
		tokens: tokens,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Tools.Timeout,
		},
		sheetsBaseURL:  "https://sheets.googleapis.com",
		slackBaseURL:   "https://slack.com",
		hubspotBaseURL: "https://api.hubapi.com",
	}
}

func (u *automationUsecase) Execute(ctx context.Context, automation *entity.ClientAutomation, call *entity.CallRecord) error {
	provider, err := oauth.ParseProvider(automation.Provider)
	if err != nil {
		return fmt.Errorf("unknown native provider %q", automation.Provider)
	}

	var cfg map[string]string
	if err := json.Unmarshal([]byte(automation.Config), &cfg); err != nil {
		return fmt.Errorf("invalid automation config for recipe %q: %w", automation.Recipe, err)
	}

	switch provider {
	case oauth.ProviderGoogleSheets:
		return u.appendSheetRow(ctx, automation.ClientID, cfg, call)
	case oauth.ProviderSlack:
		return u.postSlackMessage(ctx, automation.ClientID, cfg, call)
	case oauth.ProviderHubSpot:
		return u.upsertHubSpotContact(ctx, automation.ClientID, cfg, call)
	case oauth.ProviderGoogleCalendar, oauth.ProviderCalendly, oauth.ProviderGoHighLevel:
		// Scheduling providers act mid-call via tool endpoints; nothing to do
		// post-call.
		return nil
	default:
		return fmt.Errorf("unknown native provider %q", automation.Provider)
	}
}

// tokenProviderFor maps an automation provider to the OAuth connection that
// authorizes it. Sheets rides on the client's Google grant.
func tokenProviderFor(p oauth.Provider) oauth.Provider {
	if p == oauth.ProviderGoogleSheets {
		return oauth.ProviderGoogle
	}
	return p
}

func (u *automationUsecase) appendSheetRow(ctx context.Context, clientID string, cfg map[string]string, call *entity.CallRecord) error {
	spreadsheetID := cfg["spreadsheet_id"]
	if spreadsheetID == "" {
		return fmt.Errorf("google-sheets automation missing spreadsheet_id")
	}

	token, err := u.tokens.GetValidToken(ctx, clientID, tokenProviderFor(oauth.ProviderGoogleSheets))
	if err != nil {
		return fmt.Errorf("failed to get google token: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		u.sheetsBaseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape("Sheet1!A:I"),
	)

	body := map[string]interface{}{
		"values": [][]interface{}{{
			call.StartedAt.Format(time.RFC3339),
			call.FromNumber,
			call.ToNumber,
			call.Status,
			call.DurationS,
			call.Summary,
			call.CallID,
		}},
	}

	if _, err := u.postJSON(ctx, apiURL, token, body); err != nil {
		return fmt.Errorf("failed to append sheet row: %w", err)
	}

	u.logger.Info("Appended call row to spreadsheet",
		zap.String("client_id", clientID),
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("call_id", call.CallID),
	)

	return nil
}

func (u *automationUsecase) postSlackMessage(ctx context.Context, clientID string, cfg map[string]string, call *entity.CallRecord) error {
	channelID := cfg["channel_id"]
	if channelID == "" {
		return fmt.Errorf("slack automation missing channel_id")
	}

	token, err := u.tokens.GetValidToken(ctx, clientID, oauth.ProviderSlack)
	if err != nil {
		return fmt.Errorf("failed to get slack token: %w", err)
	}

	text := fmt.Sprintf("Call completed: %s -> %s (%ds, %s)\n%s",
		call.FromNumber, call.ToNumber, call.DurationS, call.Status, call.Summary)

	body := map[string]interface{}{
		"channel": channelID,
		"text":    text,
	}

	respBody, err := u.postJSON(ctx, u.slackBaseURL+"/api/chat.postMessage", token, body)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}

	// Slack reports errors in-band with HTTP 200
	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return fmt.Errorf("failed to decode slack response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack rejected message: %s", slackResp.Error)
	}

	u.logger.Info("Posted call summary to slack",
		zap.String("client_id", clientID),
		zap.String("channel_id", channelID),
		zap.String("call_id", call.CallID),
	)

	return nil
}

func (u *automationUsecase) upsertHubSpotContact(ctx context.Context, clientID string, cfg map[string]string, call *entity.CallRecord) error {
	token, err := u.tokens.GetValidToken(ctx, clientID, oauth.ProviderHubSpot)
	if err != nil {
		return fmt.Errorf("failed to get hubspot token: %w", err)
	}

	contact := map[string]interface{}{
		"properties": map[string]string{
			"phone":           call.FromNumber,
			"hs_lead_status":  "NEW",
			"lifecyclestage":  "lead",
			"last_call_notes": call.Summary,
		},
	}

	respBody, err := u.postJSON(ctx, u.hubspotBaseURL+"/crm/v3/objects/contacts", token, contact)
	if err != nil {
		return fmt.Errorf("failed to upsert hubspot contact: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return fmt.Errorf("failed to decode hubspot response: %w", err)
	}

	// Attach the call summary as a note on the contact
	note := map[string]interface{}{
		"properties": map[string]string{
			"hs_note_body": fmt.Sprintf("AI agent call %s: %s", call.CallID, call.Summary),
			"hs_timestamp": call.StartedAt.Format(time.RFC3339),
		},
		"associations": []map[string]interface{}{
			{
				"to": map[string]string{"id": created.ID},
				"types": []map[string]interface{}{
					{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 202},
				},
			},
		},
	}

	if _, err := u.postJSON(ctx, u.hubspotBaseURL+"/crm/v3/objects/notes", token, note); err != nil {
		return fmt.Errorf("failed to attach hubspot note: %w", err)
	}

	u.logger.Info("Upserted hubspot contact with call note",
		zap.String("client_id", clientID),
		zap.String("contact_id", created.ID),
		zap.String("call_id", call.CallID),
	)

	return nil
}

func (u *automationUsecase) postJSON(ctx context.Context, apiURL, token string, body interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
