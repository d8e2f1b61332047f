package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// accountSyncMigration adds sync_id and updated_at to accounts. Vaults written
// by earlier releases may already carry both columns (nullable, second
// precision), so each column is added only when missing and legacy
// timestamps are normalised to the millisecond layout.
func accountSyncMigration() *goose.Migration {
	return goose.NewGoMigration(2,
		&goose.GoFunc{RunTx: upAccountSync},
		&goose.GoFunc{RunTx: downAccountSync},
	)
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

func upAccountSync(ctx context.Context, tx *sql.Tx) error {
	columns := []struct {
		name string
		ddl  string
	}{
		{"sync_id", `ALTER TABLE accounts ADD COLUMN sync_id TEXT`},
		{"updated_at", `ALTER TABLE accounts ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`},
	}
	for _, c := range columns {
		ok, err := columnExists(ctx, tx, "accounts", c.name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("failed to add accounts.%s: %w", c.name, err)
		}
	}

	stmts := []string{
		`UPDATE accounts SET created_at = strftime('%Y-%m-%d %H:%M:%f', 'now') WHERE created_at IS NULL`,
		`UPDATE accounts SET created_at = created_at || '.000' WHERE length(created_at) = 19`,
		`UPDATE accounts SET updated_at = created_at WHERE updated_at IS NULL OR updated_at = ''`,
		`UPDATE accounts SET updated_at = updated_at || '.000' WHERE length(updated_at) = 19`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_sync_id ON accounts (sync_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_updated_at ON accounts (updated_at)`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("account sync migration: %w", err)
		}
	}
	return nil
}

func downAccountSync(ctx context.Context, tx *sql.Tx) error {
	for _, q := range []string{
		`DROP INDEX IF EXISTS idx_accounts_updated_at`,
		`DROP INDEX IF EXISTS idx_accounts_sync_id`,
		`ALTER TABLE accounts DROP COLUMN updated_at`,
		`ALTER TABLE accounts DROP COLUMN sync_id`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("account sync rollback: %w", err)
		}
	}
	return nil
}
