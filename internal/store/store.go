// Package store is the persistent store adapter (spec.md C3): typed CRUD
// over the six tables, with schema creation handled by golang-migrate.
// Every exported method is safe to call concurrently — callers serialize
// through the process-wide lock described in spec.md §5, held here as Mu.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBTX is satisfied by *sql.DB and *sql.Tx, following the teacher's
// interface-over-concrete-handle pattern so tests can swap in a sqlmock DB.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is the process-wide persistent store handle. Mu is the single
// exclusive lock spec.md §5 mandates: every handler that touches the store
// acquires it for the duration of one operation and releases it before
// encoding its response.
type Store struct {
	Mu sync.Mutex
	DB *sql.DB
}

// Open opens the sqlite file at dbFile and ensures its schema exists.
func Open(dbFile string) (*Store, error) {
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbFile, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping %s: %w", dbFile, err)
	}
	// sqlite only tolerates a single writer; the process-wide Mu above
	// already serializes every call, so one connection is sufficient and
	// avoids SQLITE_BUSY from the driver's own pool.
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}

// migrator builds a *migrate.Migrate bound to this store's connection and
// the embedded migration set, shared by ensureSchema and by
// cmd/migrator's standalone up/down/steps/version operations.
func (s *Store) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("store: load migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("store: init migrate: %w", err)
	}
	return m, nil
}

// Migrate runs the embedded migration set against this store's database:
// up (steps == 0 and up == true), down (up == false and steps == 0), or a
// relative step count (steps != 0, sign selects direction).
func (s *Store) Migrate(up bool, steps int) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	switch {
	case steps != 0:
		err = m.Steps(steps)
	case up:
		err = m.Up()
	default:
		err = m.Down()
	}
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// MigrationVersion reports the currently applied migration version.
func (s *Store) MigrationVersion() (version uint, dirty bool, err error) {
	m, err := s.migrator()
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
