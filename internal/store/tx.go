package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoTransaction is returned by Commit and Rollback outside a transaction.
var ErrNoTransaction = errors.New("no transaction in progress")

// Begin starts a transaction. Calling Begin inside an open transaction
// creates a savepoint, so nested mutating calls stay independently
// revertible while the outermost call remains all-or-nothing.
func (s *Store) Begin(ctx context.Context) error {
	if s.tx == nil {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		s.tx, s.depth = tx, 1
		return nil
	}

	name := savepoint(s.depth + 1)
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	s.depth++
	return nil
}

// Commit commits the innermost transaction level.
func (s *Store) Commit(ctx context.Context) error {
	switch {
	case s.tx == nil:
		return ErrNoTransaction
	case s.depth == 1:
		err := s.tx.Commit()
		s.tx, s.depth = nil, 0
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	default:
		name := savepoint(s.depth)
		if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("release %s: %w", name, err)
		}
		s.depth--
		return nil
	}
}

// Rollback reverts the innermost transaction level.
func (s *Store) Rollback(ctx context.Context) error {
	switch {
	case s.tx == nil:
		return ErrNoTransaction
	case s.depth == 1:
		err := s.tx.Rollback()
		s.tx, s.depth = nil, 0
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		slog.Debug("transaction rolled back")
		return nil
	default:
		name := savepoint(s.depth)
		if _, err := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return fmt.Errorf("rollback to %s: %w", name, err)
		}
		if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("release %s: %w", name, err)
		}
		s.depth--
		return nil
	}
}

// InTransaction reports whether a transaction is open.
func (s *Store) InTransaction() bool {
	return s.tx != nil
}

func savepoint(depth int) string {
	return fmt.Sprintf("rowmap_sp_%d", depth)
}
