// Package cipherbox encrypts document text at rest with an authenticated
// symmetric cipher (XChaCha20-Poly1305).
package cipherbox

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/hyperjump/docvault/internal/models"
	"golang.org/x/crypto/chacha20poly1305"
)

// Box encrypts and decrypts text with a single key.
// It is safe for concurrent use.
type Box struct {
	aead  cipher.AEAD
	keyID string
}

// New returns a Box for key. The key material must be chacha20poly1305.KeySize bytes.
func New(key Key) (*Box, error) {
	aead, err := chacha20poly1305.NewX(key.Material)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Box{aead: aead, keyID: key.ID}, nil
}

// KeyID identifies the key this Box was built from.
func (b *Box) KeyID() string {
	return b.keyID
}

// Encrypt seals plaintext and returns a storage-safe token: base64url(nonce || ciphertext).
// On failure it returns an empty string and an error wrapping models.ErrEncryption.
func (b *Box) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plaintext)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %w", models.ErrEncryption, err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any failure (malformed token,
// different key, tampering) yields an empty string and no error.
func (b *Box) Decrypt(token string) string {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	ns := b.aead.NonceSize()
	if len(raw) < ns+b.aead.Overhead() {
		return ""
	}
	plain, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return ""
	}
	return string(plain)
}
