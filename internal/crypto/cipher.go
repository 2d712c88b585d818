// Package crypto implements the sealed-box encryption applied to every
// stored message body: AES-256-GCM with a fresh 12-byte IV per message,
// persisted as the hex triple {iv, content, tag}.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/models"
)

const (
	KeySize = 32 // AES-256
	IVSize  = 12
	TagSize = 16
)

// Cipher seals and opens message bodies with a process-wide key. It is
// immutable after construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 64-character hex key. The key comes from
// configuration at startup and is never logged.
func New(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a freshly generated random IV. The IV is
// generated here on every call and nowhere else; reuse under the same key
// breaks GCM entirely.
func (c *Cipher) Encrypt(plaintext string) (*models.SealedMessage, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to generate iv", err)
	}

	out := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(out) - TagSize

	return &models.SealedMessage{
		IV:      hex.EncodeToString(iv),
		Content: hex.EncodeToString(out[:split]),
		Tag:     hex.EncodeToString(out[split:]),
	}, nil
}

// Decrypt opens a sealed message. Any hex corruption or tag mismatch fails
// with AUTHENTICATION_FAILURE; unverified plaintext is never returned.
func (c *Cipher) Decrypt(sealed *models.SealedMessage) (string, error) {
	iv, err := hex.DecodeString(sealed.IV)
	if err != nil || len(iv) != IVSize {
		return "", apperrors.AuthenticationFailure("message iv is corrupt")
	}
	content, err := hex.DecodeString(sealed.Content)
	if err != nil {
		return "", apperrors.AuthenticationFailure("message ciphertext is corrupt")
	}
	tag, err := hex.DecodeString(sealed.Tag)
	if err != nil || len(tag) != TagSize {
		return "", apperrors.AuthenticationFailure("message tag is corrupt")
	}

	plaintext, err := c.aead.Open(nil, iv, append(content, tag...), nil)
	if err != nil {
		return "", apperrors.AuthenticationFailure("message failed authentication")
	}
	return string(plaintext), nil
}
