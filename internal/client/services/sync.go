package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/cryptox"
)

const sessionTokenSize = 32

// SyncService exposes the primitives a sync transport needs: a change feed,
// merge and delete keyed by sync_id, device pairing and request
// authorization. It moves ciphertext and nonces unchanged and never decrypts.
type SyncService interface {
	// Pair registers a device and returns it with a fresh session token.
	Pair(ctx context.Context, deviceName string) (*models.PairedDevice, error)
	Devices(ctx context.Context) ([]models.PairedDevice, error)
	Unpair(ctx context.Context, deviceID string) error

	// ChangesSince returns accounts with updated_at strictly after watermark,
	// oldest first. An empty watermark returns everything.
	ChangesSince(ctx context.Context, watermark string) ([]models.Account, error)
	// Merge inserts an unseen sync_id or overwrites the local row according
	// to the merge policy. It reports whether the local row changed.
	Merge(ctx context.Context, remote models.SyncAccount) (bool, error)
	// DeleteBySyncID hard-deletes the account and records a tombstone.
	DeleteBySyncID(ctx context.Context, syncID string) error
	// Deletions returns tombstones recorded strictly after since.
	Deletions(ctx context.Context, since string) ([]models.Tombstone, error)

	// Authorize reports whether token belongs to a paired device.
	Authorize(ctx context.Context, token string) (bool, error)
	// CheckDevice verifies that token is the session token of deviceID.
	// Unknown devices and wrong tokens both yield common.ErrorUnauthorized.
	CheckDevice(ctx context.Context, deviceID, token string) error
	// RecordSync stamps last_sync_at of a device.
	RecordSync(ctx context.Context, deviceID string) error
}

type syncService struct {
	store *store.Store
	opts  options
}

func NewSyncService(st *store.Store, opts ...Option) SyncService {
	return &syncService{store: st, opts: newOptions(opts)}
}

func (s *syncService) Pair(ctx context.Context, deviceName string) (*models.PairedDevice, error) {
	deviceName = strings.TrimSpace(deviceName)
	if deviceName == "" {
		return nil, fmt.Errorf("%w: device name must not be empty", common.ErrValidation)
	}

	token, err := common.MakeRandHexString(sessionTokenSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	d := &models.PairedDevice{
		DeviceID:     s.opts.newID(),
		DeviceName:   deviceName,
		SessionToken: token,
		CreatedAt:    s.opts.timestamp(),
	}

	err = s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Devices.Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info(ctx, "device paired", "device_id", d.DeviceID, "device_name", d.DeviceName)
	return d, nil
}

func (s *syncService) Devices(ctx context.Context) ([]models.PairedDevice, error) {
	var list []models.PairedDevice
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		list, err = r.Devices.List(ctx)
		return err
	})
	return list, err
}

func (s *syncService) Unpair(ctx context.Context, deviceID string) error {
	var removed bool
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		removed, err = r.Devices.Delete(ctx, deviceID)
		return err
	})
	if err != nil {
		return err
	}
	if !removed {
		return common.ErrorNotFound
	}

	s.opts.log.Info(ctx, "device unpaired", "device_id", deviceID)
	return nil
}

func normalizeWatermark(w string) (string, error) {
	if strings.TrimSpace(w) == "" {
		return "", nil
	}
	n, err := models.NormalizeTime(w)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return n, nil
}

func (s *syncService) ChangesSince(ctx context.Context, watermark string) ([]models.Account, error) {
	w, err := normalizeWatermark(watermark)
	if err != nil {
		return nil, err
	}

	var list []models.Account
	err = s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		list, err = r.Accounts.ChangedSince(ctx, w)
		return err
	})
	return list, err
}

func validateRemote(remote *models.SyncAccount) error {
	if strings.TrimSpace(remote.SyncID) == "" {
		return fmt.Errorf("%w: sync_id must not be empty", common.ErrValidation)
	}
	issuer, accountName, err := normalizeNames(remote.Issuer, remote.AccountName)
	if err != nil {
		return err
	}
	if len(remote.SecretNonce) != cryptox.NonceSize {
		return fmt.Errorf("%w: %w", common.ErrValidation, cryptox.ErrInvalidNonce)
	}
	updatedAt, err := models.NormalizeTime(remote.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	remote.Issuer = issuer
	remote.AccountName = accountName
	remote.UpdatedAt = updatedAt
	return nil
}

func (s *syncService) Merge(ctx context.Context, remote models.SyncAccount) (bool, error) {
	if err := validateRemote(&remote); err != nil {
		return false, err
	}

	applied := false
	err := s.store.DoTx(ctx, func(ctx context.Context, r store.Repos) error {
		local, err := r.Accounts.GetBySyncID(ctx, remote.SyncID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			local = nil
		case err != nil:
			return err
		}

		if local != nil && s.opts.policy == MergeNewer && local.UpdatedAt > remote.UpdatedAt {
			s.opts.log.Debug(ctx, "merge skipped, local row is newer",
				"sync_id", remote.SyncID, "local_updated_at", local.UpdatedAt, "remote_updated_at", remote.UpdatedAt)
			return nil
		}

		a := &models.Account{
			Issuer:          remote.Issuer,
			AccountName:     remote.AccountName,
			EncryptedSecret: remote.EncryptedSecret,
			SecretNonce:     remote.SecretNonce,
			SyncID:          remote.SyncID,
			CreatedAt:       s.opts.timestamp(),
			UpdatedAt:       remote.UpdatedAt,
		}
		if err := r.Accounts.UpsertBySyncID(ctx, a); err != nil {
			return err
		}
		if err := r.Accounts.ClearTombstone(ctx, remote.SyncID); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		s.opts.log.Info(ctx, "account merged", "sync_id", remote.SyncID, "deleted_flag", remote.Deleted)
	}
	return applied, nil
}

func (s *syncService) DeleteBySyncID(ctx context.Context, syncID string) error {
	return s.store.DoTx(ctx, func(ctx context.Context, r store.Repos) error {
		return deleteAccount(ctx, r, s.opts, func() (*models.Account, error) {
			return r.Accounts.GetBySyncID(ctx, syncID)
		})
	})
}

func (s *syncService) Deletions(ctx context.Context, since string) ([]models.Tombstone, error) {
	w, err := normalizeWatermark(since)
	if err != nil {
		return nil, err
	}

	var list []models.Tombstone
	err = s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		list, err = r.Accounts.TombstonesSince(ctx, w)
		return err
	})
	return list, err
}

func (s *syncService) Authorize(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var devices []models.PairedDevice
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		devices, err = r.Devices.List(ctx)
		return err
	})
	if err != nil {
		return false, err
	}

	found := false
	for _, d := range devices {
		if subtle.ConstantTimeCompare([]byte(d.SessionToken), []byte(token)) == 1 {
			found = true
		}
	}
	return found, nil
}

func (s *syncService) CheckDevice(ctx context.Context, deviceID, token string) error {
	var d *models.PairedDevice
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		d, err = r.Devices.Get(ctx, deviceID)
		return err
	})
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.opts.log.Warn(ctx, "unknown device", "device_id", deviceID)
		return common.ErrorUnauthorized
	case err != nil:
		return err
	}

	if token == "" || subtle.ConstantTimeCompare([]byte(d.SessionToken), []byte(token)) != 1 {
		s.opts.log.Warn(ctx, "session token mismatch", "device_id", deviceID)
		return common.ErrorUnauthorized
	}
	return nil
}

func (s *syncService) RecordSync(ctx context.Context, deviceID string) error {
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Devices.TouchLastSync(ctx, deviceID, s.opts.timestamp())
	})
	if err != nil {
		return err
	}

	s.opts.log.Debug(ctx, "sync recorded", "device_id", deviceID)
	return nil
}
