package services

import (
	"context"

	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/cryptox"
)

const (
	settingPINHash = "pin_hash"
	settingPINSalt = "pin_salt"
	pinLength      = 4
)

// PinService gates UI access behind a 4-digit PIN. It protects nothing at
// rest: the vault data is encrypted with the master key regardless.
type PinService interface {
	HasPIN(ctx context.Context) (bool, error)
	// SetPIN stores a PBKDF2 hash of pin, replacing any previous one.
	SetPIN(ctx context.Context, pin string) error
	// VerifyPIN reports whether pin matches; false when no PIN is set.
	VerifyPIN(ctx context.Context, pin string) (bool, error)
	// RemovePIN clears the PIN after checking current against it.
	RemovePIN(ctx context.Context, current string) error
}

type pinService struct {
	store *store.Store
	opts  options
}

func NewPinService(st *store.Store, opts ...Option) PinService {
	return &pinService{store: st, opts: newOptions(opts)}
}

func validPIN(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func (s *pinService) HasPIN(ctx context.Context) (bool, error) {
	var ok bool
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		_, ok, err = r.Settings.Get(ctx, settingPINHash)
		return err
	})
	return ok, err
}

func (s *pinService) SetPIN(ctx context.Context, pin string) error {
	if !validPIN(pin) {
		return common.ErrInvalidPIN
	}

	hash, salt, err := cryptox.HashPIN(pin)
	if err != nil {
		return err
	}

	err = s.store.DoTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Settings.Set(ctx, settingPINHash, hash); err != nil {
			return err
		}
		return r.Settings.Set(ctx, settingPINSalt, salt)
	})
	if err != nil {
		return err
	}

	s.opts.log.Info(ctx, "pin set")
	return nil
}

func (s *pinService) VerifyPIN(ctx context.Context, pin string) (bool, error) {
	var hash, salt string
	var hasHash, hasSalt bool

	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		if hash, hasHash, err = r.Settings.Get(ctx, settingPINHash); err != nil {
			return err
		}
		salt, hasSalt, err = r.Settings.Get(ctx, settingPINSalt)
		return err
	})
	if err != nil {
		return false, err
	}
	if !hasHash || !hasSalt {
		return false, nil
	}

	return cryptox.VerifyPIN(pin, hash, salt), nil
}

func (s *pinService) RemovePIN(ctx context.Context, current string) error {
	has, err := s.HasPIN(ctx)
	if err != nil {
		return err
	}
	if !has {
		return common.ErrNoPIN
	}

	ok, err := s.VerifyPIN(ctx, current)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrPINMismatch
	}

	err = s.store.DoTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Settings.Delete(ctx, settingPINHash); err != nil {
			return err
		}
		return r.Settings.Delete(ctx, settingPINSalt)
	})
	if err != nil {
		return err
	}

	s.opts.log.Info(ctx, "pin removed")
	return nil
}
