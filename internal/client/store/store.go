// Package store opens the vault database, brings its schema up to date and
// serializes every operation on it behind a single lock.
//
// All access goes through Do or DoTx, which hand the caller a Repos bundle
// bound to either the database or a transaction. Callers never see *sql.DB.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/otpkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/otpkeeper/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/otpkeeper/internal/client/repositories/devices"
	"github.com/dmitrijs2005/otpkeeper/internal/client/repositories/settings"
	"github.com/dmitrijs2005/otpkeeper/internal/common"
	"github.com/dmitrijs2005/otpkeeper/internal/dbx"
	"github.com/dmitrijs2005/otpkeeper/internal/filex"
	"github.com/dmitrijs2005/otpkeeper/internal/logging"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const DBFileName = "vault.db"

// newSyncID is a seam for tests.
var newSyncID = uuid.NewString

// Repos is the set of repositories bound to one handle.
type Repos struct {
	Accounts accounts.Repository
	Settings settings.Repository
	Devices  devices.Repository
}

func newRepos(db dbx.DBTX) Repos {
	return Repos{
		Accounts: accounts.NewSQLiteRepository(db),
		Settings: settings.NewSQLiteRepository(db),
		Devices:  devices.NewSQLiteRepository(db),
	}
}

type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	log logging.Logger
}

// OpenDir opens (creating if needed) DBFileName inside dir.
func OpenDir(ctx context.Context, dir string, log logging.Logger) (*Store, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return Open(ctx, filepath.Join(dir, DBFileName), log)
}

// Open opens the database at dsn, applies pending migrations and assigns a
// sync_id to every account that lacks one.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w: %w", common.ErrStorage, err)
	}
	// One connection: operations are serialized by mu anyway, and an
	// in-memory database is private to its connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}

	if err := s.InitDatabase(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// InitDatabase runs migrations and the sync_id backfill.
func (s *Store) InitDatabase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("migration error: %w: %w", common.ErrStorage, err)
	}

	n, err := s.backfillSyncIDs(ctx)
	if err != nil {
		return fmt.Errorf("sync_id backfill error: %w", err)
	}
	if n > 0 {
		s.log.Info(ctx, "assigned missing sync ids", "count", n)
	}
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	p, err := migrations.NewProvider(s.db)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		s.log.Debug(ctx, "applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (s *Store) backfillSyncIDs(ctx context.Context) (int, error) {
	var n int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := accounts.NewSQLiteRepository(tx)

		ids, err := repo.MissingSyncIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := repo.SetSyncID(ctx, id, newSyncID()); err != nil {
				return err
			}
		}
		n = len(ids)
		return nil
	})
	return n, err
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := migrations.NewProvider(s.db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

// Do runs fn with repositories bound to the database while holding the store
// lock.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(ctx, newRepos(s.db))
}

// DoTx is like Do but runs fn inside a transaction that is committed only
// when fn returns nil.
func (s *Store) DoTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
