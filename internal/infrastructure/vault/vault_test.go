package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicehub/internal/config"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	cfg := &config.Config{
		Vault: config.VaultConfig{
			Key: strings.Repeat("ab", 32),
		},
	}
	v, err := NewVault(cfg)
	require.NoError(t, err)
	return v
}

func TestNewVaultRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too short", "abcd"},
		{"too long", strings.Repeat("ab", 33)},
		{"not hex", strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVault(&config.Config{Vault: config.VaultConfig{Key: tt.key}})
			require.Error(t, err)
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plaintext := range []string{
		"",
		"x",
		"ya29.a0AfH6SMB-access-token",
		"contains:colons:and spaces \n and unicode ✓",
	} {
		token, err := v.Encrypt(plaintext)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(token, "enc:"))

		got, err := v.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := v.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEncryptedFormat(t *testing.T) {
	v := newTestVault(t)

	token, err := v.Encrypt("secret")
	require.NoError(t, err)

	parts := strings.Split(token, ":")
	require.Len(t, parts, 4)
	assert.Equal(t, "enc", parts[0])
	assert.Len(t, parts[1], 24) // 12-byte iv
	assert.Len(t, parts[2], 32) // 16-byte tag
}

func TestDecryptPassesThroughLegacyPlaintext(t *testing.T) {
	v := newTestVault(t)

	got, err := v.Decrypt("sk-plain-api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-plain-api-key", got)
}

func TestDecryptRejectsWrongSegmentCount(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Decrypt("enc:deadbeef:cafe")
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	v := newTestVault(t)

	token, err := v.Encrypt("super secret")
	require.NoError(t, err)

	parts := strings.Split(token, ":")

	// Flip one hex digit in the tag segment
	tampered := []byte(parts[2])
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}
	bad := strings.Join([]string{parts[0], parts[1], string(tampered), parts[3]}, ":")
	_, err = v.Decrypt(bad)
	require.ErrorIs(t, err, ErrAuthentication)

	// Flip one hex digit in the ciphertext segment
	tampered = []byte(parts[3])
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}
	bad = strings.Join([]string{parts[0], parts[1], parts[2], string(tampered)}, ":")
	_, err = v.Decrypt(bad)
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestDecryptWithDifferentKeyFails(t *testing.T) {
	v := newTestVault(t)
	token, err := v.Encrypt("secret")
	require.NoError(t, err)

	other, err := NewVault(&config.Config{Vault: config.VaultConfig{Key: strings.Repeat("cd", 32)}})
	require.NoError(t, err)

	_, err = other.Decrypt(token)
	require.ErrorIs(t, err, ErrAuthentication)
}
