// Package tokencrypt encrypts Shopify access tokens for storage at rest
// using AES-256-GCM. Ciphertexts are base64 with the nonce prepended.
package tokencrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Crypter seals and opens access tokens with a fixed 32-byte key.
type Crypter struct {
	aead cipher.AEAD
}

// New builds a Crypter from a base64-encoded 32-byte key.
func New(keyB64 string) (*Crypter, error) {
	const op = "tokencrypt.New"
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s: key must be 32 bytes, got %d", op, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Crypter{aead: aead}, nil
}

// Encrypt seals plaintext and returns nonce||ciphertext as base64.
func (c *Crypter) Encrypt(plaintext string) (string, error) {
	const op = "tokencrypt.Encrypt"
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Crypter) Decrypt(encoded string) (string, error) {
	const op = "tokencrypt.Decrypt"
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("%s: ciphertext too short", op)
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(plaintext), nil
}
