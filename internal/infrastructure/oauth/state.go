package oauth

import (
	"encoding/json"
	"fmt"
	"time"

	"voicehub/internal/infrastructure/vault"
)

// stateMaxAge bounds how long an authorization round-trip may take.
const stateMaxAge = 10 * time.Minute

// StatePayload is embedded, encrypted, in the OAuth state parameter. It is
// self-contained; nothing is persisted server-side. Validity is enforced by
// decrypt success plus the age bound.
type StatePayload struct {
	ClientID     string `json:"clientId"`
	Provider     string `json:"provider"`
	RedirectPath string `json:"redirectPath"`
	Timestamp    int64  `json:"timestamp"`
}

// EncodeState encrypts the state payload for use as the state query parameter.
func EncodeState(v *vault.Vault, clientID string, provider Provider, redirectPath string) (string, error) {
	payload := StatePayload{
		ClientID:     clientID,
		Provider:     provider.String(),
		RedirectPath: redirectPath,
		Timestamp:    time.Now().Unix(),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	return v.Encrypt(string(b))
}

// DecodeState decrypts and validates a state token returned on callback.
// State tokens are always vault-produced; the legacy plaintext passthrough
// that Decrypt allows for stored credentials is never a valid state, so the
// prefix is required up front.
func DecodeState(v *vault.Vault, state string) (*StatePayload, error) {
	if !vault.IsEncrypted(state) {
		return nil, fmt.Errorf("invalid oauth state: not an encrypted token")
	}

	plaintext, err := v.Decrypt(state)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth state: %w", err)
	}

	var payload StatePayload
	if err := json.Unmarshal([]byte(plaintext), &payload); err != nil {
		return nil, fmt.Errorf("invalid oauth state payload: %w", err)
	}

	issued := time.Unix(payload.Timestamp, 0)
	if time.Since(issued) > stateMaxAge {
		return nil, fmt.Errorf("oauth state expired (issued %s ago)", time.Since(issued).Round(time.Second))
	}

	if _, err := ParseProvider(payload.Provider); err != nil {
		return nil, fmt.Errorf("invalid oauth state: %w", err)
	}

	return &payload, nil
}
