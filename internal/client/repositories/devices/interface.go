// Package devices persists paired devices and their session tokens.
package devices

import (
	"context"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
)

type Repository interface {
	// Save inserts a device or replaces name and token of an existing one.
	Save(ctx context.Context, d *models.PairedDevice) error
	// List returns devices, most recently paired first.
	List(ctx context.Context) ([]models.PairedDevice, error)
	Get(ctx context.Context, deviceID string) (*models.PairedDevice, error)
	// TouchLastSync sets last_sync_at; unknown ids yield common.ErrorNotFound.
	TouchLastSync(ctx context.Context, deviceID, at string) error
	// Delete reports whether a device was removed.
	Delete(ctx context.Context, deviceID string) (bool, error)
}
