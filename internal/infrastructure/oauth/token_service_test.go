package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicehub/internal/config"
	"voicehub/internal/domain/entity"
)

type mockConnectionRepo struct {
	conn *entity.OAuthConnection

	updateCalls  int
	lastAccess   string
	lastRefresh  string
	markInvalids int
	upserted     *entity.OAuthConnection
	deletes      int
}

func (m *mockConnectionRepo) FindByClientProvider(ctx context.Context, clientID, provider string) (*entity.OAuthConnection, error) {
	return m.conn, nil
}

func (m *mockConnectionRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.OAuthConnection, error) {
	if m.conn == nil {
		return nil, nil
	}
	return []*entity.OAuthConnection{m.conn}, nil
}

func (m *mockConnectionRepo) Upsert(ctx context.Context, conn *entity.OAuthConnection) error {
	m.upserted = conn
	return nil
}

func (m *mockConnectionRepo) UpdateTokens(ctx context.Context, clientID, provider, accessToken, refreshToken string, expiresInSec int64) error {
	m.updateCalls++
	m.lastAccess = accessToken
	m.lastRefresh = refreshToken
	return nil
}

func (m *mockConnectionRepo) MarkInvalid(ctx context.Context, clientID, provider string) error {
	m.markInvalids++
	return nil
}

func (m *mockConnectionRepo) Delete(ctx context.Context, clientID, provider string) error {
	m.deletes++
	return nil
}

type mockRegistrar struct {
	calls int
}

func (m *mockRegistrar) UnregisterTools(ctx context.Context, clientID, provider string) error {
	m.calls++
	return nil
}

func newTestService(t *testing.T, repo *mockConnectionRepo, registrar *mockRegistrar, tokenURL, revokeURL string) TokenService {
	t.Helper()

	cfg := &config.Config{
		App:   config.AppConfig{BaseURL: "http://localhost:8080"},
		Vault: config.VaultConfig{Key: strings.Repeat("ab", 32)},
		Tools: config.ToolsConfig{Timeout: 5 * time.Second},
		Providers: map[string]config.ProviderConfig{
			"google": {
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				AuthURL:      "https://accounts.example.com/auth",
				TokenURL:     tokenURL,
				RevokeURL:    revokeURL,
				Scopes:       []string{"openid", "email"},
			},
		},
	}

	v := newTestVault(t)
	registry, err := NewRegistry(cfg)
	require.NoError(t, err)

	return NewTokenService(cfg, registry, v, repo, registrar, zap.NewNop())
}

func encryptedConn(t *testing.T, expiresAt time.Time, refreshToken string) *entity.OAuthConnection {
	t.Helper()
	v := newTestVault(t)

	encAccess, err := v.Encrypt("stored-access-token")
	require.NoError(t, err)

	encRefresh := ""
	if refreshToken != "" {
		encRefresh, err = v.Encrypt(refreshToken)
		require.NoError(t, err)
	}

	return &entity.OAuthConnection{
		ClientID:     "client-1",
		Provider:     "google",
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		ExpiresAt:    expiresAt,
		Status:       entity.ConnectionStatusActive,
	}
}

func TestGetValidTokenReturnsStoredTokenWithoutRefresh(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(1*time.Hour), "stored-refresh")}
	svc := newTestService(t, repo, &mockRegistrar{}, srv.URL, "")

	token, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "stored-access-token", token)
	assert.Equal(t, 0, tokenCalls)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestGetValidTokenRefreshesExpiredToken(t *testing.T) {
	var tokenCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "stored-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "test-client", r.Form.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-access","expires_in":3600}`))
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(10*time.Second), "stored-refresh")}
	svc := newTestService(t, repo, &mockRegistrar{}, srv.URL, "")

	token, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", token)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 1, repo.updateCalls)

	// Persisted material is encrypted, and the provider did not rotate the
	// refresh token, so the previous one is kept.
	v := newTestVault(t)
	access, err := v.Decrypt(repo.lastAccess)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", access)

	refresh, err := v.Decrypt(repo.lastRefresh)
	require.NoError(t, err)
	assert.Equal(t, "stored-refresh", refresh)
}

func TestGetValidTokenFlagsConnectionOnRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(-1*time.Minute), "revoked-refresh")}
	svc := newTestService(t, repo, &mockRegistrar{}, srv.URL, "")

	_, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	assert.ErrorIs(t, err, ErrReauthorizationRequired)
	assert.Equal(t, 1, repo.markInvalids)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestGetValidTokenWithoutRefreshTokenRequiresReauth(t *testing.T) {
	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(-1*time.Minute), "")}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	_, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	assert.ErrorIs(t, err, ErrReauthorizationRequired)
	assert.Equal(t, 1, repo.markInvalids)
}

func TestGetValidTokenNotConnected(t *testing.T) {
	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	_, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestGetValidTokenInvalidConnection(t *testing.T) {
	conn := encryptedConn(t, time.Now().Add(1*time.Hour), "stored-refresh")
	conn.Status = entity.ConnectionStatusInvalid

	repo := &mockConnectionRepo{conn: conn}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	_, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	assert.ErrorIs(t, err, ErrReauthorizationRequired)
}

func TestBuildAuthURL(t *testing.T) {
	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	authURL, err := svc.BuildAuthURL("client-1", ProviderGoogle, "/portal")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(authURL, "https://accounts.example.com/auth?"))
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "response_type=code")
	assert.Contains(t, authURL, "state=enc%3A")
	assert.Contains(t, authURL, "scope=openid+email")
}

func TestCompleteFlowStoresEncryptedConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "auth-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3600,"scope":"email"}`))
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, srv.URL, "")

	v := newTestVault(t)
	state, err := EncodeState(v, "client-1", ProviderGoogle, "/portal/integrations")
	require.NoError(t, err)

	result, err := svc.CompleteFlow(context.Background(), state, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "client-1", result.ClientID)
	assert.Equal(t, ProviderGoogle, result.Provider)
	assert.Equal(t, "/portal/integrations", result.RedirectPath)

	require.NotNil(t, repo.upserted)
	assert.Equal(t, entity.ConnectionStatusActive, repo.upserted.Status)
	assert.NotEqual(t, "new-access", repo.upserted.AccessToken)

	access, err := v.Decrypt(repo.upserted.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)

	refresh, err := v.Decrypt(repo.upserted.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", refresh)
}

func TestCompleteFlowNonExpiringToken(t *testing.T) {
	// Slack-style bot tokens come back with no expires_in and no refresh
	// token; the connection must stay readable, never enter the refresh path.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"xoxb-bot-token","token_type":"bearer"}`))
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, srv.URL, "")

	v := newTestVault(t)
	state, err := EncodeState(v, "client-1", ProviderGoogle, "")
	require.NoError(t, err)

	_, err = svc.CompleteFlow(context.Background(), state, "auth-code")
	require.NoError(t, err)

	require.NotNil(t, repo.upserted)
	assert.True(t, repo.upserted.ExpiresAt.After(time.Now().Add(365*24*time.Hour)),
		"tokens without expires_in must be stored as non-expiring")

	// The very next read returns the stored token untouched
	repo.conn = repo.upserted
	token, err := svc.GetValidToken(context.Background(), "client-1", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-bot-token", token)
	assert.Equal(t, 0, repo.markInvalids)
}

func TestCompleteFlowRejectsBadState(t *testing.T) {
	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	_, err := svc.CompleteFlow(context.Background(), "not-a-state", "auth-code")
	assert.Error(t, err)
	assert.Nil(t, repo.upserted)
}

func TestDisconnectRevokesAndDeletes(t *testing.T) {
	var revokeCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revokeCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "stored-access-token", r.Form.Get("token"))
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(1*time.Hour), "stored-refresh")}
	registrar := &mockRegistrar{}
	svc := newTestService(t, repo, registrar, "http://localhost:1", srv.URL)

	err := svc.Disconnect(context.Background(), "client-1", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, 1, revokeCalls)
	assert.Equal(t, 1, registrar.calls)
	assert.Equal(t, 1, repo.deletes)
}

func TestDisconnectDeletesEvenWhenRevokeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := &mockConnectionRepo{conn: encryptedConn(t, time.Now().Add(1*time.Hour), "stored-refresh")}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", srv.URL)

	err := svc.Disconnect(context.Background(), "client-1", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.deletes)
}

func TestDisconnectNotConnected(t *testing.T) {
	repo := &mockConnectionRepo{}
	svc := newTestService(t, repo, &mockRegistrar{}, "http://localhost:1", "")

	err := svc.Disconnect(context.Background(), "client-1", ProviderGoogle)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, repo.deletes)
}
