// Package accounts is the persistence layer for OTP accounts and their
// deletion tombstones.
//
// The SQLite implementation runs over dbx.DBTX, so the same repository works
// against *sql.DB or inside a transaction. Unique-constraint failures are
// reported as common.ErrAlreadyExists; other driver failures wrap
// common.ErrStorage.
//
//	repo := accounts.NewSQLiteRepository(tx)
//	id, err := repo.Insert(ctx, &acc)
//	list, err := repo.GetAll(ctx)
//	changed, err := repo.ChangedSince(ctx, watermark)
package accounts
