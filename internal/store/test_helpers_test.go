package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable creates a store with one table from ddl.
func createTestTable(t *testing.T, ddl string) *Store {
	t.Helper()
	s := createTestStore(t)
	if _, err := s.Exec(context.Background(), ddl); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return s
}

const usersDDL = `CREATE TABLE users (
	id      INTEGER PRIMARY KEY,
	name    TEXT NOT NULL,
	email   VARCHAR(120),
	status  TEXT NOT NULL DEFAULT 'new',
	score   REAL DEFAULT 1.5,
	active  BOOLEAN NOT NULL DEFAULT TRUE,
	created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
