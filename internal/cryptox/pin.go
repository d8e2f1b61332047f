package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	PINSaltSize   = 16
	PINHashSize   = 32
	PINIterations = 100_000
)

// HashPIN derives a verifier for pin under a fresh random salt. Both values
// are returned base64-encoded and are opaque to callers.
func HashPIN(pin string) (hash, salt string, err error) {
	rawSalt, err := generateRandom(PINSaltSize)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(pin), rawSalt, PINIterations, PINHashSize, sha256.New)
	return base64.StdEncoding.EncodeToString(derived), base64.StdEncoding.EncodeToString(rawSalt), nil
}

// VerifyPIN reports whether pin matches a stored hash/salt pair. Malformed
// stored values never produce an error, only false.
func VerifyPIN(pin, storedHash, storedSalt string) bool {
	want, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil || len(want) == 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(pin), salt, PINIterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func generateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := randRead(b); err != nil {
		return nil, err
	}
	return b, nil
}
