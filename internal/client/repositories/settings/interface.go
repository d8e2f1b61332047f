// Package settings stores application settings such as the PIN hash and
// salt as a key/value table.
package settings

import "context"

type Repository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set inserts or replaces the value and refreshes updated_at.
	Set(ctx context.Context, key, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}
