// Package secrets encrypts provider tokens before they reach the account store.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	versionPrefix = "enc:v1:"
	hkdfInfo      = "graph-mail account token encryption"
)

// Cipher seals strings with XChaCha20-Poly1305. The key is derived from an
// arbitrary length secret with HKDF-SHA256. A Cipher built from an empty
// secret is disabled and passes values through unchanged.
type Cipher struct {
	aead    cipher.AEAD
	enabled bool
}

func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return &Cipher{}, nil
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Cipher{aead: aead, enabled: true}, nil
}

func (c *Cipher) Enabled() bool {
	return c != nil && c.enabled
}

// Encrypt returns "enc:v1:" + base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt accepts values written by Encrypt. Values without the version
// prefix were stored before encryption was enabled and are returned as-is.
func (c *Cipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, versionPrefix) {
		return value, nil
	}
	if !c.Enabled() {
		return "", fmt.Errorf("encrypted value found but no encryption key is configured")
	}

	sealed, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("encrypted value is too short")
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plaintext), nil
}
