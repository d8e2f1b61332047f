// Package totp derives RFC 6238 time-based one-time codes (HMAC-SHA1,
// 6 digits, 30-second step) from Base32 seeds and parses otpauth URIs.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Digits = 6
	Period = 30
)

var ErrInvalidSecret = errors.New("invalid totp secret")

const seedAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Code is a generated one-time code and the number of seconds it stays valid.
type Code struct {
	Code             string `json:"code"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// decodeSeed accepts seeds of any length as long as they are valid Base32.
// Case, spaces and trailing padding are normalised first since issuers are
// inconsistent about all three. Trailing bits that do not fill a byte are
// dropped, so "JBS" yields one byte.
func decodeSeed(seed string) ([]byte, error) {
	s := strings.ToUpper(strings.ReplaceAll(seed, " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSecret)
	}

	key := make([]byte, 0, len(s)*5/8)
	var buf uint32
	bits := 0
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(seedAlphabet, s[i])
		if v < 0 {
			return nil, fmt.Errorf("%w: illegal character %q at offset %d", ErrInvalidSecret, s[i], i)
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			key = append(key, byte(buf>>bits))
			buf &= 1<<bits - 1
		}
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: too short", ErrInvalidSecret)
	}
	return key, nil
}

// ValidateFormat reports whether seed is non-empty and Base32-decodable.
func ValidateFormat(seed string) bool {
	_, err := decodeSeed(seed)
	return err == nil
}

// Generate returns the code for the current wall-clock time.
func Generate(seed string) (Code, error) {
	return GenerateAt(seed, time.Now())
}

// GenerateAt returns the code valid at t together with the seconds left until
// the next step boundary, in the range [1, Period].
func GenerateAt(seed string, t time.Time) (Code, error) {
	key, err := decodeSeed(seed)
	if err != nil {
		return Code{}, err
	}
	unix := t.Unix()
	return Code{
		Code:             codeAt(key, uint64(unix/Period)),
		RemainingSeconds: Period - int(unix%Period),
	}, nil
}

func codeAt(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%0*d", Digits, bin%1_000_000)
}
