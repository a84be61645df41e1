// Package mapper binds one table to a connection and exposes find, create,
// update, delete and sync operations over row-oriented data.
//
// # Reads
//
// Find assembles a query.Select from the caller's conditions and ordering
// plus any state set through the passthrough methods (Where, OrderBy, Limit,
// Offset, Columns, Join, LeftJoin). Once more than one table is registered
// the mapper is "joined": bare condition and order keys are qualified with
// the mapper's alias (or table name) and the projection lists every joined
// column explicitly. Passthrough state is reset after every read.
//
// # Writes
//
// Create, Update, UpdateBatch, Delete and Flush each run in one transaction
// when transactions are enabled (the default). Any error rolls the whole call
// back and is returned to the caller unchanged. Values pass through the
// cast-for-store and normalize steps before Create and Update.
//
// # Reconciliation
//
// Sync diffs a desired dataset against the persisted rows for a condition set
// and applies the minimal delete/create/update set.
//
// # Hooks
//
// Every public operation emits a before and an after hook.Event. Before
// listeners may rewrite the operation's arguments; after listeners may
// replace its result.
package mapper
