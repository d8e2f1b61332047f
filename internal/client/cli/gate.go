package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpkeeper/internal/common"
)

const maxPINAttempts = 3

// unlock asks for the PIN when one is configured. It gates the UI only; the
// vault itself is protected by the master key.
func (a *App) unlock(ctx context.Context) error {
	has, err := a.pins.HasPIN(ctx)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	for i := 0; i < maxPINAttempts; i++ {
		pin, err := GetSecret("PIN", a.out)
		if err != nil {
			return err
		}
		ok, err := a.pins.VerifyPIN(ctx, pin)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fmt.Fprintln(a.out, "Wrong PIN")
	}

	a.log.Warn(ctx, "pin gate failed", "attempts", maxPINAttempts)
	return common.ErrPINMismatch
}
