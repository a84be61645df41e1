package mapper

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/reconcile"
	"github.com/roach88/rowmap/internal/record"
)

// Sync makes the rows matching where equal to desired.
//
// Rows are matched by their projection onto compareKeys, which default to
// the columns named in where. Persisted rows with no desired match are
// deleted, desired rows with no persisted match are created, and every
// matched desired row is written back with one UpdateBatch scoped to its
// own projection. The whole call runs in one transaction.
//
// In the result, Added carries generated keys; Kept and Deleted are the
// rows as they were before the call.
func (m *Mapper) Sync(ctx context.Context, desired any, where query.Conditions, compareKeys ...string) (reconcile.Result, error) {
	if err := m.requireTable(); err != nil {
		return reconcile.Result{}, err
	}
	set, err := m.Bind(desired)
	if err != nil {
		return reconcile.Result{}, err
	}
	if len(compareKeys) == 0 {
		compareKeys = where.Columns()
	}
	if len(compareKeys) == 0 {
		return reconcile.Result{}, m.configError("sync: no compare keys and no condition columns")
	}
	compareKeys = slices.Clone(compareKeys)

	args := &hook.Args{Data: &set, Conditions: &where, CompareKeys: &compareKeys}
	ev, err := m.hooks.Begin(ctx, hook.OpSync, m.table, args)
	if err != nil {
		return reconcile.Result{}, err
	}
	if len(compareKeys) == 0 {
		return reconcile.Result{}, m.configError("sync: before.sync listener cleared the compare keys")
	}

	var res reconcile.Result
	err = m.transaction(ctx, func(ctx context.Context) error {
		persisted, err := m.Find(ctx, where)
		if err != nil {
			return err
		}
		res, err = reconcile.Partition(set, persisted, compareKeys)
		if err != nil {
			return err
		}

		for _, row := range res.Deleted {
			if _, err := m.Delete(ctx, identityConditions(row, compareKeys)); err != nil {
				return err
			}
		}
		if len(res.Added) > 0 {
			if _, err := m.Create(ctx, res.Added); err != nil {
				return err
			}
		}
		for _, row := range res.Kept {
			if _, err := m.UpdateBatch(ctx, row, identityConditions(row, compareKeys)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return reconcile.Result{}, err
	}

	slog.Info("synced",
		"table", m.table,
		"kept", len(res.Kept),
		"added", len(res.Added),
		"deleted", len(res.Deleted),
	)

	out, err := m.hooks.Finish(ctx, ev, res)
	if err != nil {
		return reconcile.Result{}, err
	}
	return resultAs[reconcile.Result](hook.OpSync, out)
}

// identityConditions matches the rows sharing r's projection onto keys.
func identityConditions(r *record.Record, keys []string) query.Conditions {
	var where query.Conditions
	for _, k := range keys {
		where = where.And(k, query.Eq(r.Value(k)))
	}
	return where
}
