// Package migrations embeds the vault schema as ordered goose migrations.
//
// Schema evolution is additive only. The applied version is recorded by
// goose in its own table, so opening an up-to-date vault is a no-op.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

// NewProvider returns a goose provider for db over the embedded SQL
// migrations and the Go migrations that need to inspect the schema.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, Migrations,
		goose.WithGoMigrations(accountSyncMigration()),
	)
}
