package accounts

import (
	"context"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
)

// Repository describes CRUD, change-feed and tombstone operations on accounts.
type Repository interface {
	// Insert stores a new account and returns its local id.
	Insert(ctx context.Context, a *models.Account) (int64, error)

	// GetAll returns every account ordered by issuer ascending.
	GetAll(ctx context.Context) ([]models.Account, error)

	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetBySyncID(ctx context.Context, syncID string) (*models.Account, error)

	// UpdateNames renames an account and sets updated_at.
	UpdateNames(ctx context.Context, id int64, issuer, accountName, updatedAt string) error

	// DeleteByID and DeleteBySyncID are hard deletes. They report whether a
	// row was removed; deleting a missing row is not an error.
	DeleteByID(ctx context.Context, id int64) (bool, error)
	DeleteBySyncID(ctx context.Context, syncID string) (bool, error)

	// ChangedSince returns accounts with updated_at strictly after watermark,
	// ascending by updated_at.
	ChangedSince(ctx context.Context, watermark string) ([]models.Account, error)

	// UpsertBySyncID inserts the account, or replaces every mutable field of
	// the row holding the same sync_id.
	UpsertBySyncID(ctx context.Context, a *models.Account) error

	// MissingSyncIDs lists ids of rows without a sync_id.
	MissingSyncIDs(ctx context.Context) ([]int64, error)
	SetSyncID(ctx context.Context, id int64, syncID string) error

	RecordTombstone(ctx context.Context, syncID, deletedAt string) error
	ClearTombstone(ctx context.Context, syncID string) error
	TombstonesSince(ctx context.Context, since string) ([]models.Tombstone, error)
}
