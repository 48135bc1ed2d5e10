package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

const keyPrefix = "base64:"

// ErrShortCiphertext is returned when a payload is too short to hold a nonce.
var ErrShortCiphertext = errors.New("ciphertext shorter than nonce")

// AESEncrypter seals with AES-256-GCM. Output layout is nonce || sealed.
type AESEncrypter struct {
	aead cipher.AEAD
}

var _ Encrypter = (*AESEncrypter)(nil)

// NewAESEncrypter builds an encrypter from a 32-byte key.
func NewAESEncrypter(key []byte) (*AESEncrypter, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d: want %d bytes", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &AESEncrypter{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (e *AESEncrypter) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt. A payload sealed under another
// key fails authentication.
func (e *AESEncrypter) Decrypt(ciphertext []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrShortCiphertext
	}
	plain, err := e.aead.Open(nil, ciphertext[:n], ciphertext[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plain, nil
}

// ParseKey decodes a key written as "base64:<data>" or bare base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("encryption key is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, keyPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("invalid key length %d: want %d bytes", len(raw), KeySize)
	}
	return raw, nil
}

// GenerateKey returns a random key in "base64:<data>" form.
func GenerateKey() (string, error) {
	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	return keyPrefix + base64.StdEncoding.EncodeToString(raw), nil
}
