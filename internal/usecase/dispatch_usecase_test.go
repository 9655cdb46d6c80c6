package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
)

type mockSubscriptionRepo struct {
	mu          sync.Mutex
	subs        []*entity.WebhookSubscription
	listErr     error
	deactivated []string
}

func (m *mockSubscriptionRepo) ListActive(ctx context.Context, platform, clientID, event string) ([]*entity.WebhookSubscription, error) {
	return m.subs, m.listErr
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, platform string, sub *entity.WebhookSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the upsert: a duplicate keeps the existing row and hands its
	// id back to the caller.
	for _, existing := range m.subs {
		if existing.ClientID == sub.ClientID && existing.HookURL == sub.HookURL && existing.Event == sub.Event {
			sub.ID = existing.ID
			existing.Active = true
			return nil
		}
	}
	m.subs = append(m.subs, sub)
	return nil
}

func (m *mockSubscriptionRepo) Deactivate(ctx context.Context, platform, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockSubscriptionRepo) Delete(ctx context.Context, platform, clientID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.subs {
		if existing.ClientID == clientID && existing.ID == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %s not found", id)
}

type mockDeliveryLogRepo struct {
	mu   sync.Mutex
	logs []*entity.DeliveryLog
}

func (m *mockDeliveryLogRepo) Save(ctx context.Context, log *entity.DeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockDeliveryLogRepo) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.DeliveryLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs, nil
}

type countingHook struct {
	mu     sync.Mutex
	count  int
	bodies []map[string]interface{}
	status int
}

func (h *countingHook) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		_ = json.Unmarshal(body, &payload)

		h.mu.Lock()
		h.count++
		h.bodies = append(h.bodies, payload)
		h.mu.Unlock()

		if h.status != 0 {
			w.WriteHeader(h.status)
		}
	}
}

func (h *countingHook) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func TestDispatchDeliversToAllSubscribers(t *testing.T) {
	first := &countingHook{}
	second := &countingHook{}
	srv1 := httptest.NewServer(first.handler())
	defer srv1.Close()
	srv2 := httptest.NewServer(second.handler())
	defer srv2.Close()

	subs := &mockSubscriptionRepo{subs: []*entity.WebhookSubscription{
		{ID: "sub-1", ClientID: "client-1", HookURL: srv1.URL, Event: entity.EventCallCompleted, Active: true},
		{ID: "sub-2", ClientID: "client-1", HookURL: srv2.URL, Event: entity.EventCallCompleted, Active: true},
	}}
	logs := &mockDeliveryLogRepo{}
	u := NewDispatchUsecase(subs, logs, zap.NewNop())

	err := u.DispatchZapier(context.Background(), "client-1", entity.EventCallCompleted, map[string]interface{}{
		"call_id": "call-42",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, first.calls())
	assert.Equal(t, 1, second.calls())
	assert.Empty(t, subs.deactivated)
	assert.Len(t, logs.logs, 2)

	// Event name rides inside the payload
	require.Len(t, first.bodies, 1)
	assert.Equal(t, entity.EventCallCompleted, first.bodies[0]["event"])
	assert.Equal(t, "call-42", first.bodies[0]["call_id"])
}

func TestDispatchDeactivatesOnGone(t *testing.T) {
	healthy := &countingHook{}
	gone := &countingHook{status: http.StatusGone}
	srvHealthy := httptest.NewServer(healthy.handler())
	defer srvHealthy.Close()
	srvGone := httptest.NewServer(gone.handler())
	defer srvGone.Close()

	subs := &mockSubscriptionRepo{subs: []*entity.WebhookSubscription{
		{ID: "sub-healthy", ClientID: "client-1", HookURL: srvHealthy.URL, Event: entity.EventLeadCreated, Active: true},
		{ID: "sub-gone", ClientID: "client-1", HookURL: srvGone.URL, Event: entity.EventLeadCreated, Active: true},
	}}
	u := NewDispatchUsecase(subs, &mockDeliveryLogRepo{}, zap.NewNop())

	err := u.DispatchMake(context.Background(), "client-1", entity.EventLeadCreated, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, healthy.calls())
	assert.Equal(t, []string{"sub-gone"}, subs.deactivated)
}

func TestDispatchFailureIsolation(t *testing.T) {
	healthy := &countingHook{}
	failing := &countingHook{status: http.StatusInternalServerError}
	srvHealthy := httptest.NewServer(healthy.handler())
	defer srvHealthy.Close()
	srvFailing := httptest.NewServer(failing.handler())
	defer srvFailing.Close()

	subs := &mockSubscriptionRepo{subs: []*entity.WebhookSubscription{
		{ID: "sub-1", ClientID: "client-1", HookURL: srvFailing.URL, Event: entity.EventCallCompleted, Active: true},
		{ID: "sub-2", ClientID: "client-1", HookURL: srvHealthy.URL, Event: entity.EventCallCompleted, Active: true},
		{ID: "sub-3", ClientID: "client-1", HookURL: "http://127.0.0.1:1/unreachable", Event: entity.EventCallCompleted, Active: true},
	}}
	logs := &mockDeliveryLogRepo{}
	u := NewDispatchUsecase(subs, logs, zap.NewNop())

	err := u.DispatchN8N(context.Background(), "client-1", entity.EventCallCompleted, nil)
	require.NoError(t, err)

	// Every subscriber got its attempt and got a log entry; a 500 does not
	// deactivate anything.
	assert.Equal(t, 1, healthy.calls())
	assert.Equal(t, 1, failing.calls())
	assert.Empty(t, subs.deactivated)
	assert.Len(t, logs.logs, 3)
}

func TestDispatchNoSubscribers(t *testing.T) {
	subs := &mockSubscriptionRepo{}
	logs := &mockDeliveryLogRepo{}
	u := NewDispatchUsecase(subs, logs, zap.NewNop())

	err := u.DispatchZapier(context.Background(), "client-1", entity.EventBookingMade, nil)
	require.NoError(t, err)
	assert.Empty(t, logs.logs)
}

func TestDispatchSurfacesListError(t *testing.T) {
	subs := &mockSubscriptionRepo{listErr: assert.AnError}
	u := NewDispatchUsecase(subs, &mockDeliveryLogRepo{}, zap.NewNop())

	err := u.DispatchZapier(context.Background(), "client-1", entity.EventCallCompleted, nil)
	assert.Error(t, err)
}
