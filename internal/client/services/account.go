package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/cryptox"
	"github.com/dmitrijs2005/otpkeeper/internal/totp"
)

// AccountService manages OTP accounts on this device.
type AccountService interface {
	// Add validates the seed, encrypts it under the master key and stores a
	// new account with a fresh sync_id.
	Add(ctx context.Context, issuer, accountName, seed string) (*models.Account, error)
	// AddFromURI parses an otpauth URI and adds the account it describes.
	AddFromURI(ctx context.Context, uri string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Rename(ctx context.Context, id int64, issuer, accountName string) error
	// Delete hard-deletes the account and records a tombstone for its sync_id.
	// Deleting a missing account is not an error.
	Delete(ctx context.Context, id int64) error
	// CurrentCode decrypts the seed and derives the code for the current
	// time step.
	CurrentCode(ctx context.Context, id int64) (totp.Code, error)
	// Export writes every account as an indented JSON array.
	Export(ctx context.Context, w io.Writer) (int, error)
	// Import re-adds each exported record, skipping the ones that fail, and
	// returns how many were stored.
	Import(ctx context.Context, r io.Reader) (int, error)
}

type accountService struct {
	store *store.Store
	key   []byte
	opts  options
}

func NewAccountService(st *store.Store, key []byte, opts ...Option) AccountService {
	return &accountService{store: st, key: key, opts: newOptions(opts)}
}

func normalizeNames(issuer, accountName string) (string, string, error) {
	issuer = strings.TrimSpace(issuer)
	accountName = strings.TrimSpace(accountName)
	if issuer == "" || accountName == "" {
		return "", "", common.ErrEmptyField
	}
	return issuer, accountName, nil
}

func (s *accountService) Add(ctx context.Context, issuer, accountName, seed string) (*models.Account, error) {
	issuer, accountName, err := normalizeNames(issuer, accountName)
	if err != nil {
		return nil, err
	}

	seed = strings.TrimSpace(seed)
	if !totp.ValidateFormat(seed) {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, totp.ErrInvalidSecret)
	}

	ct, nonce, err := cryptox.EncryptSecret(seed, s.key)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	return s.insert(ctx, issuer, accountName, ct, nonce)
}

// insert is the shared add path for new and imported accounts.
func (s *accountService) insert(ctx context.Context, issuer, accountName string, ct, nonce []byte) (*models.Account, error) {
	now := s.opts.timestamp()
	a := &models.Account{
		Issuer:          issuer,
		AccountName:     accountName,
		EncryptedSecret: ct,
		SecretNonce:     nonce,
		SyncID:          s.opts.newID(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		_, err := r.Accounts.Insert(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.opts.log.Info(ctx, "account added", "id", a.ID, "sync_id", a.SyncID)
	return a, nil
}

func (s *accountService) AddFromURI(ctx context.Context, uri string) (*models.Account, error) {
	info, err := totp.ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return s.Add(ctx, info.Issuer, info.AccountName, info.Secret)
}

func (s *accountService) List(ctx context.Context) ([]models.Account, error) {
	var list []models.Account
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		list, err = r.Accounts.GetAll(ctx)
		return err
	})
	return list, err
}

func (s *accountService) Rename(ctx context.Context, id int64, issuer, accountName string) error {
	issuer, accountName, err := normalizeNames(issuer, accountName)
	if err != nil {
		return err
	}

	return s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Accounts.UpdateNames(ctx, id, issuer, accountName, s.opts.timestamp())
	})
}

func (s *accountService) Delete(ctx context.Context, id int64) error {
	return s.store.DoTx(ctx, func(ctx context.Context, r store.Repos) error {
		return deleteAccount(ctx, r, s.opts, func() (*models.Account, error) {
			return r.Accounts.GetByID(ctx, id)
		})
	})
}

// deleteAccount removes the row returned by lookup and tombstones its sync_id.
func deleteAccount(ctx context.Context, r store.Repos, o options, lookup func() (*models.Account, error)) error {
	a, err := lookup()
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	if _, err := r.Accounts.DeleteByID(ctx, a.ID); err != nil {
		return err
	}
	if err := r.Accounts.RecordTombstone(ctx, a.SyncID, o.timestamp()); err != nil {
		return err
	}
	o.log.Info(ctx, "account deleted", "id", a.ID, "sync_id", a.SyncID)
	return nil
}

func (s *accountService) CurrentCode(ctx context.Context, id int64) (totp.Code, error) {
	var a *models.Account
	err := s.store.Do(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		a, err = r.Accounts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return totp.Code{}, err
	}

	if len(a.SecretNonce) != cryptox.NonceSize {
		return totp.Code{}, cryptox.ErrInvalidNonce
	}

	seed, err := cryptox.DecryptSecret(a.EncryptedSecret, a.SecretNonce, s.key)
	if err != nil {
		return totp.Code{}, err
	}

	return totp.GenerateAt(seed, s.opts.now())
}

// backupRecord is the export shape; local ids are not portable.
type backupRecord struct {
	Issuer          string `json:"issuer"`
	AccountName     string `json:"account_name"`
	EncryptedSecret []byte `json:"encrypted_secret"`
	SecretNonce     []byte `json:"secret_nonce"`
	SyncID          string `json:"sync_id"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func (s *accountService) Export(ctx context.Context, w io.Writer) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]backupRecord, 0, len(list))
	for _, a := range list {
		records = append(records, backupRecord{
			Issuer:          a.Issuer,
			AccountName:     a.AccountName,
			EncryptedSecret: a.EncryptedSecret,
			SecretNonce:     a.SecretNonce,
			SyncID:          a.SyncID,
			CreatedAt:       a.CreatedAt,
			UpdatedAt:       a.UpdatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	return len(records), nil
}

func (s *accountService) Import(ctx context.Context, r io.Reader) (int, error) {
	var records []backupRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("%w: malformed backup: %w", common.ErrValidation, err)
	}

	imported := 0
	for _, rec := range records {
		issuer, accountName, err := normalizeNames(rec.Issuer, rec.AccountName)
		if err == nil && len(rec.SecretNonce) != cryptox.NonceSize {
			err = fmt.Errorf("%w: %w", common.ErrValidation, cryptox.ErrInvalidNonce)
		}
		if err == nil {
			_, err = s.insert(ctx, issuer, accountName, rec.EncryptedSecret, rec.SecretNonce)
		}
		if err != nil {
			s.opts.log.Warn(ctx, "skipped backup record", "sync_id", rec.SyncID, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}
