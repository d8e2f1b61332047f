package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpkeeper/internal/client/models"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/dbx"
)

const deviceColumns = `device_id, device_name, session_token, COALESCE(last_sync_at, ''), created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, d *models.PairedDevice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paired_devices (device_id, device_name, session_token, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			device_name = excluded.device_name,
			session_token = excluded.session_token
	`, d.DeviceID, d.DeviceName, d.SessionToken, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save device[%s]: %w: %w", d.DeviceID, common.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PairedDevice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM paired_devices ORDER BY created_at DESC, device_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	result := []models.PairedDevice{}
	for rows.Next() {
		var d models.PairedDevice
		if err := rows.Scan(&d.DeviceID, &d.DeviceName, &d.SessionToken, &d.LastSyncAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w: %w", common.ErrStorage, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device rows: %w: %w", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, deviceID string) (*models.PairedDevice, error) {
	var d models.PairedDevice
	err := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM paired_devices WHERE device_id = ?`, deviceID).
		Scan(&d.DeviceID, &d.DeviceName, &d.SessionToken, &d.LastSyncAt, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device[%s]: %w: %w", deviceID, common.ErrStorage, err)
	}
	return &d, nil
}

func (r *SQLiteRepository) TouchLastSync(ctx context.Context, deviceID, at string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE paired_devices SET last_sync_at = ? WHERE device_id = ?`, at, deviceID)
	if err != nil {
		return fmt.Errorf("failed to record sync for device[%s]: %w: %w", deviceID, common.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w: %w", common.ErrStorage, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, deviceID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM paired_devices WHERE device_id = ?`, deviceID)
	if err != nil {
		return false, fmt.Errorf("failed to delete device[%s]: %w: %w", deviceID, common.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w: %w", common.ErrStorage, err)
	}
	return n > 0, nil
}
