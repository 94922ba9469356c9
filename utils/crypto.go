package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var ErrCipherTextShort = errors.New("cipher text too short")

// Cipher seals per-user secrets (OpenAI keys) with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(key string) (*Cipher, error) {
	if len(key) != 32 {
		return nil, errors.New("ENCRYPTION_KEY must be 32 characters long for AES-256 encryption")
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("NewCipher: failed to create cipher block: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("NewCipher: failed to create GCM block: %w", err)
	}
	return &Cipher{aead: aesGCM}, nil
}

func (c *Cipher) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("Encrypt: failed to generate nonce: %w", err)
	}

	cipherText := c.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

func (c *Cipher) Decrypt(encrypted string) (string, error) {
	cipherData, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("Decrypt: failed to base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(cipherData) < nonceSize {
		return "", ErrCipherTextShort
	}

	nonce, cipherText := cipherData[:nonceSize], cipherData[nonceSize:]
	plainText, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", fmt.Errorf("Decrypt: failed to decrypt: %w", err)
	}
	return string(plainText), nil
}

// Hash is the hex sha256 of text. Used as a stable key for payload de-duplication.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
