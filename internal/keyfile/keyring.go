package keyfile

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const DefaultService = "otpkeeper"

// KeyringSource stores the key base64-encoded in the OS keyring under
// (Service, User). User is normally the data directory path so that separate
// vaults on one machine get separate keys.
type KeyringSource struct {
	Service string
	User    string
}

func (s KeyringSource) LoadOrCreate() ([]byte, error) {
	stored, err := keyring.Get(s.Service, s.User)
	switch {
	case err == nil:
		key, derr := base64.StdEncoding.DecodeString(stored)
		if derr != nil || len(key) != KeySize {
			return nil, fmt.Errorf("%w: keyring entry %s/%s", ErrCorruptKey, s.Service, s.User)
		}
		return key, nil
	case !errors.Is(err, keyring.ErrNotFound):
		return nil, fmt.Errorf("read master key from keyring: %w", err)
	}

	key, err := newKey()
	if err != nil {
		return nil, err
	}
	if err := keyring.Set(s.Service, s.User, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("store master key in keyring: %w", err)
	}
	return key, nil
}
