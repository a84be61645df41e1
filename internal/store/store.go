package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rowmap/internal/normalize"
)

// Store is a SQLite connection implementing the mapper's connection boundary.
//
// The pool is pinned to a single connection, so the transaction state held
// here is the state of the one underlying SQLite connection. Callers must
// serialize access; Store performs no locking.
type Store struct {
	db *sqlx.DB

	// tx is the open transaction, nil outside one. depth counts nested
	// Begin calls; levels above 1 are savepoints.
	tx    *sqlx.Tx
	depth int
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and transaction state must
	// live on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection. An open transaction is rolled back.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx, s.depth = nil, 0
	}
	return s.db.Close()
}

// DB returns the underlying handle for direct queries.
// Use with caution - the pool holds one connection, so calls made here while a
// transaction is open block until it ends.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Exec runs a statement (typically DDL) inside the open transaction, if any.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.ext().ExecContext(ctx, query, args...)
}

// Layouts returns SQLite's date and datetime text formats.
func (s *Store) Layouts() normalize.Layouts {
	return normalize.DefaultLayouts
}

// ext returns the open transaction or the database.
func (s *Store) ext() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func logStatement(op, table, sql string, args []any) {
	slog.Debug("sql", "op", op, "table", table, "sql", sql, "args", len(args))
}
