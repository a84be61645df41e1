// Package store provides the SQLite connection behind rowmap mappers.
//
// Store implements the mapper's connection boundary:
//   - Reads: Query renders a query.Select and materialises rows as maps
//   - Writes: Insert, Update, UpdateBatch and Delete over arbitrary tables
//   - Introspection: Columns reads PRAGMA table_info, DefaultFor resolves
//     per-type generic defaults
//   - Transactions: Begin/Commit/Rollback, nested levels use savepoints
//
// # Value Representation
//
// The go-sqlite3 driver returns TEXT columns as []byte when the declared type
// carries no affinity hint. Query converts every []byte to string so that rows
// read back compare equal to the values written.
//
// Column defaults that are SQL expressions (CURRENT_TIMESTAMP, (lower('x')))
// are reported as schema.Expr and written inline rather than bound.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One pooled connection, so transaction state is well defined
package store
