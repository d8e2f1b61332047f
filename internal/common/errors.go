// Package common defines shared sentinel errors and small helpers used across
// the otpkeeper client layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrStorage       = errors.New("storage error")

	// Validation errors. Specific causes wrap ErrValidation.
	ErrValidation = errors.New("validation error")
	ErrEmptyField = fmt.Errorf("%w: issuer and account name must not be empty", ErrValidation)
	ErrInvalidPIN = fmt.Errorf("%w: pin must be exactly 4 digits", ErrValidation)

	// PIN gate state errors.
	ErrNoPIN       = errors.New("no pin configured")
	ErrPINMismatch = errors.New("pin does not match")

	// Sync errors.
	ErrorUnauthorized = errors.New("unauthorized")
)
