package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard nonce
	TagSize   = 16
)

// randRead is a test seam for crypto/rand.
var randRead = rand.Read

var (
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrInvalidNonce     = errors.New("invalid nonce length")
	ErrAuthFailed       = errors.New("authentication failed")
)

// NewNonce returns NonceSize random bytes.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := randRead(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under key with the given nonce and empty associated
// data. The result is ciphertext||tag.
func Seal(plaintext, key, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any tag mismatch (wrong key, wrong nonce or modified
// ciphertext) yields ErrAuthFailed and no plaintext.
func Open(ciphertext, key, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < TagSize {
		return nil, ErrAuthFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// EncryptSecret seals an OTP seed under the master key using a fresh random
// nonce and returns the ciphertext together with that nonce.
//
// Example:
//
//	ct, nonce, err := cryptox.EncryptSecret("JBSWY3DPEHPK3PXP", masterKey)
//	if err != nil {
//	    return err
//	}
//	// persist ct and nonce side by side
func EncryptSecret(secret string, key []byte) (ciphertext, nonce []byte, err error) {
	nonce, err = NewNonce()
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = Seal([]byte(secret), key, nonce)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, nonce, nil
}

// DecryptSecret opens a ciphertext produced by EncryptSecret.
func DecryptSecret(ciphertext, nonce, key []byte) (string, error) {
	plaintext, err := Open(ciphertext, key, nonce)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", errors.New("decrypted secret is not valid UTF-8")
	}
	return string(plaintext), nil
}
