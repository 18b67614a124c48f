// Package crypto encrypts OAuth tokens before they are written to the database.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	keyInfo = "playshelf oauth token encryption v1"
	// versionPrefix marks the sealing scheme of a stored value.
	versionPrefix = "v1."
)

var encoding = base64.RawURLEncoding.Strict()

// ErrMalformedCiphertext is returned when a stored value cannot be decoded or opened.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// TokenCipher seals strings with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext and the result is stored as "v1." followed by
// strict unpadded base64url.
type TokenCipher struct {
	key []byte
}

// NewTokenCipher derives a 32-byte key from secret with HKDF-SHA256.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &TokenCipher{key: key}, nil
}

// Encrypt seals plaintext. Each call uses a fresh nonce.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + encoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *TokenCipher) Decrypt(encoded string) (string, error) {
	payload, ok := strings.CutPrefix(encoded, versionPrefix)
	if !ok {
		return "", ErrMalformedCiphertext
	}
	sealed, err := encoding.DecodeString(payload)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plaintext), nil
}

// EncryptPtr encrypts an optional value; empty input stays nil.
func (c *TokenCipher) EncryptPtr(plaintext string) (*string, error) {
	if plaintext == "" {
		return nil, nil
	}
	out, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptPtr decrypts an optional value; nil or empty input yields "".
func (c *TokenCipher) DecryptPtr(encoded *string) (string, error) {
	if encoded == nil || *encoded == "" {
		return "", nil
	}
	return c.Decrypt(*encoded)
}
