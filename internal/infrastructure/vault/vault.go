package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"voicehub/internal/config"
)

const (
	// encPrefix marks a vault-encrypted value. Stored values without it are
	// treated as legacy plaintext and returned unchanged by Decrypt.
	encPrefix = "enc"

	nonceSize = 12
	tagSize   = 16
)

// ErrAuthentication is returned when the GCM tag does not verify (tampered
// ciphertext or wrong key). Decryption fails closed; it never returns
// corrupted plaintext.
var ErrAuthentication = errors.New("vault: ciphertext authentication failed")

// ErrFormat is returned when a prefixed value does not have the expected
// prefix:iv:tag:ciphertext shape.
var ErrFormat = errors.New("vault: malformed encrypted value")

// Vault encrypts and decrypts short secret strings (API keys, OAuth tokens,
// trunk passwords) for storage in the database.
type Vault struct {
	aead cipher.AEAD
}

// NewVault builds a Vault from the configured 256-bit key. The key must be
// exactly 64 hex characters; anything else is a configuration error.
func NewVault(cfg *config.Config) (*Vault, error) {
	if len(cfg.Vault.Key) != 64 {
		return nil, fmt.Errorf("vault: key must be 64 hex characters, got %d", len(cfg.Vault.Key))
	}

	key, err := hex.DecodeString(cfg.Vault.Key)
	if err != nil {
		return nil, fmt.Errorf("vault: key is not valid hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to initialize GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt encrypts plaintext with a fresh random nonce and returns the
// delimited string form "enc:<iv-hex>:<tag-hex>:<ciphertext-hex>".
// Encrypting the same plaintext twice never yields the same output.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: failed to generate nonce: %w", err)
	}

	// Seal appends the 16-byte tag to the ciphertext; split it back out so
	// the stored format keeps iv, tag and ciphertext as separate segments.
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return fmt.Sprintf("%s:%s:%s:%s",
		encPrefix,
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// IsEncrypted reports whether the value carries the enc prefix, i.e. whether
// Decrypt would actually decrypt it rather than pass it through.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix+":")
}

// Decrypt reverses Encrypt. A value without the enc prefix is returned
// unchanged (legacy plaintext compatibility). A prefixed value with the wrong
// segment count or bad hex fails with ErrFormat; a tag verification failure
// fails with ErrAuthentication.
func (v *Vault) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, encPrefix+":") {
		return value, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return "", fmt.Errorf("%w: expected 4 segments, got %d", ErrFormat, len(parts))
	}

	nonce, err := hex.DecodeString(parts[1])
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: bad iv segment", ErrFormat)
	}

	tag, err := hex.DecodeString(parts[2])
	if err != nil || len(tag) != tagSize {
		return "", fmt.Errorf("%w: bad tag segment", ErrFormat)
	}

	ciphertext, err := hex.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext segment", ErrFormat)
	}

	plaintext, err := v.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthentication
	}

	return string(plaintext), nil
}
