package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/domain/entity"
)

type mockHookKeyRepo struct {
	keys map[string]*entity.HookAPIKey
}

func (m *mockHookKeyRepo) FindByClient(ctx context.Context, clientID string) (*entity.HookAPIKey, error) {
	return m.keys[clientID], nil
}

func (m *mockHookKeyRepo) Save(ctx context.Context, key *entity.HookAPIKey) error {
	m.keys[key.ClientID] = key
	return nil
}

func newTestHooksUsecase(subs *mockSubscriptionRepo) HooksUsecase {
	keys := &mockHookKeyRepo{keys: map[string]*entity.HookAPIKey{
		"client-1": {ClientID: "client-1", KeyHash: HashHookSecret("s3cret")},
	}}
	return NewHooksUsecase(keys, subs, zap.NewNop())
}

func TestVerifyKey(t *testing.T) {
	u := newTestHooksUsecase(&mockSubscriptionRepo{})

	tests := []struct {
		name    string
		apiKey  string
		want    string
		wantErr bool
	}{
		{name: "valid key", apiKey: "client-1:s3cret", want: "client-1"},
		{name: "wrong secret", apiKey: "client-1:guess", wantErr: true},
		{name: "unknown client", apiKey: "client-9:s3cret", wantErr: true},
		{name: "missing separator", apiKey: "client-1s3cret", wantErr: true},
		{name: "empty secret", apiKey: "client-1:", wantErr: true},
		{name: "empty key", apiKey: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientID, err := u.VerifyKey(context.Background(), tt.apiKey)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, clientID)
		})
	}
}

func TestSubscribe(t *testing.T) {
	subs := &mockSubscriptionRepo{}
	u := newTestHooksUsecase(subs)

	sub, err := u.Subscribe(context.Background(), entity.HookPlatformZapier, "client-1", &entity.SubscribeRequest{
		HookURL: "https://hooks.zapier.com/abc",
		Event:   entity.EventCallCompleted,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "client-1", sub.ClientID)
	assert.True(t, sub.Active)
	require.Len(t, subs.subs, 1)
}

func TestResubscribeKeepsIDForUnsubscribe(t *testing.T) {
	subs := &mockSubscriptionRepo{}
	u := newTestHooksUsecase(subs)

	req := &entity.SubscribeRequest{
		HookURL: "https://hooks.zapier.com/abc",
		Event:   entity.EventCallCompleted,
	}

	first, err := u.Subscribe(context.Background(), entity.HookPlatformZapier, "client-1", req)
	require.NoError(t, err)

	// A duplicate subscribe reactivates the existing row, so the id the
	// caller gets back must match the stored one or the later unsubscribe
	// would target a row that does not exist.
	second, err := u.Subscribe(context.Background(), entity.HookPlatformZapier, "client-1", req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, subs.subs, 1)

	require.NoError(t, u.Unsubscribe(context.Background(), entity.HookPlatformZapier, "client-1", second.ID))
	assert.Empty(t, subs.subs)

	err = u.Unsubscribe(context.Background(), entity.HookPlatformZapier, "client-1", "no-such-id")
	assert.ErrorContains(t, err, "not found")
}

func TestSubscribeValidation(t *testing.T) {
	u := newTestHooksUsecase(&mockSubscriptionRepo{})

	_, err := u.Subscribe(context.Background(), entity.HookPlatformMake, "client-1", &entity.SubscribeRequest{
		Event: entity.EventCallCompleted,
	})
	assert.ErrorContains(t, err, "hookUrl")

	_, err = u.Subscribe(context.Background(), entity.HookPlatformMake, "client-1", &entity.SubscribeRequest{
		HookURL: "https://hook.make.com/abc",
	})
	assert.ErrorContains(t, err, "event")
}
