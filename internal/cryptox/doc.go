// Package cryptox holds the vault's cryptographic primitives.
//
// Secrets are sealed with AES-256-GCM under the device master key. Every call
// to EncryptSecret draws a fresh 12-byte nonce from crypto/rand; the nonce is
// returned to the caller, who must persist it next to the ciphertext. The
// ciphertext carries the 16-byte GCM tag appended to it.
//
// PINs are never stored. HashPIN derives a 32-byte PBKDF2-HMAC-SHA256 value
// under a random 16-byte salt and returns both as standard base64 strings.
//
// All functions are pure: they keep no state between calls and are safe for
// concurrent use.
package cryptox
