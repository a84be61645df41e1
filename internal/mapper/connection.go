package mapper

import (
	"context"

	"github.com/roach88/rowmap/internal/normalize"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// Connection is the database boundary a Mapper drives. store.Store is the
// SQLite implementation.
//
// Implementations are not required to be safe for concurrent use; callers
// serialize access to one connection.
type Connection interface {
	schema.Introspector

	// Query executes a read and returns its rows.
	Query(ctx context.Context, q *query.Select) ([]map[string]any, error)

	// Insert writes one row and returns the generated key when
	// autoIncrement is set.
	Insert(ctx context.Context, table string, rec *record.Record, key string, autoIncrement bool) (int64, error)

	// Update writes rec to the row matched by conditionFields (values taken
	// from rec). Nil values are written only when includeNulls is set.
	Update(ctx context.Context, table string, rec *record.Record, conditionFields []string, includeNulls bool) (int64, error)

	// UpdateBatch applies rec to every row matching where.
	UpdateBatch(ctx context.Context, table string, rec *record.Record, where query.Conditions) (bool, error)

	// Delete removes every row matching where.
	Delete(ctx context.Context, table string, where query.Conditions) (bool, error)

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Layouts returns the driver's date and datetime formats.
	Layouts() normalize.Layouts
}
