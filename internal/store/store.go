// Package store is the durable mapping of trigger metadata and per-webhook
// HMAC secrets (§4.A), backed by a local embedded SQLite database opened
// with WAL journaling, grounded on the sqlite3 store of rakunlabs-at
// (driver choice, WAL pragma, single-writer connection discipline) and the
// teacher's internal/db package (embedded-migration shape, Tx helper).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "modernc.org/sqlite"
)

// Store owns the database handle. Reads are concurrent (the pooled
// connections and SQLite's WAL mode allow it); writes are serialized by
// writeMu so exactly one write transaction is in flight at a time, per
// §4.A and §5 ("a single write transaction at a time").
type Store struct {
	db      *sql.DB
	goqu    *goqu.Database
	logger  *slog.Logger
	writeMu sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL journaling, and runs migrations. path may be ":memory:" for tests,
// per the spec's configuration table; in that case WAL is not enabled and
// the pool is limited to one connection, because every SQLite connection
// to ":memory:" opens its own private, empty database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := applyMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{
		db:     db,
		goqu:   goqu.New("sqlite3", db),
		logger: logger,
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the underlying database is reachable, for the
// readiness endpoint (SPEC_FULL.md §2.4).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withWriteTx runs fn inside a write transaction, serialized against every
// other write via writeMu. Readers are unaffected and may proceed
// concurrently against the prior committed state (§5 "Refresh writes are
// transactional").
func (s *Store) withWriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
