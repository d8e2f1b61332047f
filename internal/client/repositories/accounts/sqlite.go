package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/dbx"
)

const accountColumns = `id, issuer, account_name, encrypted_secret, secret_nonce, COALESCE(sync_id, ''), created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func storageErr(op string, err error) error {
	if dbx.IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, common.ErrAlreadyExists, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, common.ErrStorage, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (models.Account, error) {
	var a models.Account
	err := s.Scan(&a.ID, &a.Issuer, &a.AccountName, &a.EncryptedSecret, &a.SecretNonce, &a.SyncID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Account) (int64, error) {
	query := `INSERT INTO accounts (issuer, account_name, encrypted_secret, secret_nonce, sync_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, a.Issuer, a.AccountName, a.EncryptedSecret, a.SecretNonce, a.SyncID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return 0, storageErr("insert account", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("get inserted account id", err)
	}
	a.ID = id
	return id, nil
}

func (r *SQLiteRepository) query(ctx context.Context, op, query string, args ...any) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	result := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("scan account row", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate account rows", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Account, error) {
	return r.query(ctx, "select accounts",
		`SELECT `+accountColumns+` FROM accounts ORDER BY issuer ASC, account_name ASC`)
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, storageErr("get account", err)
	}
	return &a, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) GetBySyncID(ctx context.Context, syncID string) (*models.Account, error) {
	return r.getOne(ctx, `sync_id = ?`, syncID)
}

func (r *SQLiteRepository) UpdateNames(ctx context.Context, id int64, issuer, accountName, updatedAt string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET issuer = ?, account_name = ?, updated_at = ? WHERE id = ?`,
		issuer, accountName, updatedAt, id)
	if err != nil {
		return storageErr("update account", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) deleteWhere(ctx context.Context, where string, arg any) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE `+where, arg)
	if err != nil {
		return false, storageErr("delete account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("get rows affected", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	return r.deleteWhere(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) DeleteBySyncID(ctx context.Context, syncID string) (bool, error) {
	return r.deleteWhere(ctx, `sync_id = ?`, syncID)
}

func (r *SQLiteRepository) ChangedSince(ctx context.Context, watermark string) ([]models.Account, error) {
	return r.query(ctx, "select changed accounts",
		`SELECT `+accountColumns+` FROM accounts WHERE updated_at > ? ORDER BY updated_at ASC, id ASC`, watermark)
}

func (r *SQLiteRepository) UpsertBySyncID(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (issuer, account_name, encrypted_secret, secret_nonce, sync_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sync_id) DO UPDATE SET
			issuer = excluded.issuer,
			account_name = excluded.account_name,
			encrypted_secret = excluded.encrypted_secret,
			secret_nonce = excluded.secret_nonce,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, a.Issuer, a.AccountName, a.EncryptedSecret, a.SecretNonce, a.SyncID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return storageErr("upsert account", err)
	}
	return nil
}

func (r *SQLiteRepository) MissingSyncIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM accounts WHERE sync_id IS NULL OR sync_id = '' ORDER BY id`)
	if err != nil {
		return nil, storageErr("select accounts without sync_id", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan account id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate account ids", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) SetSyncID(ctx context.Context, id int64, syncID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET sync_id = ? WHERE id = ? AND (sync_id IS NULL OR sync_id = '')`, syncID, id)
	if err != nil {
		return storageErr("set sync_id", err)
	}
	return nil
}

func (r *SQLiteRepository) RecordTombstone(ctx context.Context, syncID, deletedAt string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_tombstones (sync_id, deleted_at) VALUES (?, ?)
		ON CONFLICT(sync_id) DO UPDATE SET deleted_at = excluded.deleted_at
	`, syncID, deletedAt)
	if err != nil {
		return storageErr("record tombstone", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearTombstone(ctx context.Context, syncID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM account_tombstones WHERE sync_id = ?`, syncID)
	if err != nil {
		return storageErr("clear tombstone", err)
	}
	return nil
}

func (r *SQLiteRepository) TombstonesSince(ctx context.Context, since string) ([]models.Tombstone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sync_id, deleted_at FROM account_tombstones WHERE deleted_at > ? ORDER BY deleted_at ASC, sync_id ASC`, since)
	if err != nil {
		return nil, storageErr("select tombstones", err)
	}
	defer rows.Close()

	result := []models.Tombstone{}
	for rows.Next() {
		var ts models.Tombstone
		if err := rows.Scan(&ts.SyncID, &ts.DeletedAt); err != nil {
			return nil, storageErr("scan tombstone", err)
		}
		result = append(result, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tombstones", err)
	}
	return result, nil
}
