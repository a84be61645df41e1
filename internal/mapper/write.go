package mapper

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/normalize"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
)

// transaction runs fn inside Begin/Commit when transactions are enabled.
// On failure it rolls back and returns fn's error value unchanged.
func (m *Mapper) transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	if err := m.conn.Begin(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		if rbErr := m.conn.Rollback(ctx); rbErr != nil {
			slog.Error("rollback failed", "table", m.table, "error", rbErr)
		} else {
			slog.Warn("rolled back", "table", m.table, "error", err)
		}
		return err
	}
	return m.conn.Commit(ctx)
}

// Create inserts every record of data and returns the bound set.
//
// Every insert supplies a complete row: columns missing from a record get
// the column default, or NULL when the column is nullable and declares none.
//
// Generated auto-increment keys are written back onto the records of the
// returned set. Those are the caller's own when data holds *record.Record
// values; maps are copied when bound, so map callers read generated keys
// from the returned set.
func (m *Mapper) Create(ctx context.Context, data any) (record.Set, error) {
	if err := m.requireTable(); err != nil {
		return nil, err
	}
	set, err := m.Bind(data)
	if err != nil {
		return nil, err
	}

	args := &hook.Args{Data: &set}
	ev, err := m.hooks.Begin(ctx, hook.OpCreate, m.table, args)
	if err != nil {
		return nil, err
	}

	err = m.transaction(ctx, func(ctx context.Context) error {
		for _, rec := range set {
			if err := m.insert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("rows created", "table", m.table, "count", len(set))

	res, err := m.hooks.Finish(ctx, ev, set)
	if err != nil {
		return nil, err
	}
	return resultAs[record.Set](hook.OpCreate, res)
}

func (m *Mapper) insert(ctx context.Context, rec *record.Record) error {
	keyEmpty := m.keyEmpty(rec)

	fields, err := m.schema.Fields(ctx)
	if err != nil {
		return err
	}
	if keyEmpty {
		fields = fields.WithoutAutoIncrement()
	}

	row := rec.Only(fields.Names()...)
	if keyEmpty {
		for _, k := range m.primaryKey {
			row.Delete(k)
		}
	}

	layouts := m.conn.Layouts()
	if err := normalize.ForStore(row, layouts); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	row, err = normalize.Normalize(row, fields, m.schema.TypeDefault, layouts, true)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	// Inserts are complete rows: absent columns take their declared or
	// synthesized default, nullable ones without a default take NULL.
	for _, col := range fields.Columns() {
		if row.Has(col.Name) || (keyEmpty && slices.Contains(m.primaryKey, col.Name)) {
			continue
		}
		if col.HasDefault {
			row.Set(col.Name, col.Default)
		} else {
			row.Set(col.Name, nil)
		}
	}

	key, autoIncrement := m.generatedKey(ctx, keyEmpty)
	id, err := m.conn.Insert(ctx, m.table, row, key, autoIncrement)
	if err != nil {
		return err
	}
	if autoIncrement && id != 0 {
		rec.Set(key, id)
	}
	return nil
}

// keyEmpty reports whether every primary-key value of rec is unset, nil,
// "" or zero.
func (m *Mapper) keyEmpty(rec *record.Record) bool {
	for _, k := range m.primaryKey {
		switch v := rec.Value(k).(type) {
		case nil:
		case string:
			if v != "" {
				return false
			}
		default:
			if n, err := normalize.ToInt64(v); err != nil || n != 0 {
				return false
			}
		}
	}
	return true
}

// generatedKey returns the key column the database assigns on insert, if
// any.
func (m *Mapper) generatedKey(ctx context.Context, keyEmpty bool) (string, bool) {
	if len(m.primaryKey) != 1 {
		return "", false
	}
	key := m.primaryKey[0]
	if !keyEmpty {
		return key, false
	}
	fields, err := m.schema.Fields(ctx)
	if err != nil {
		return key, false
	}
	col, ok := fields.Get(key)
	return key, ok && col.AutoIncrement
}

// Update writes every record of data to the row matched by conditionFields
// (default: the primary key). With updateNulls false, nil values leave the
// stored value untouched.
func (m *Mapper) Update(ctx context.Context, data any, updateNulls bool, conditionFields ...string) (record.Set, error) {
	if err := m.requireTable(); err != nil {
		return nil, err
	}
	set, err := m.Bind(data)
	if err != nil {
		return nil, err
	}
	if len(conditionFields) == 0 {
		conditionFields = slices.Clone(m.primaryKey)
	}

	args := &hook.Args{Data: &set, UpdateNulls: &updateNulls, ConditionFields: &conditionFields}
	ev, err := m.hooks.Begin(ctx, hook.OpUpdate, m.table, args)
	if err != nil {
		return nil, err
	}

	err = m.transaction(ctx, func(ctx context.Context) error {
		fields, err := m.schema.Fields(ctx)
		if err != nil {
			return err
		}
		layouts := m.conn.Layouts()

		for _, rec := range set {
			row := rec.Clone()
			if err := normalize.ForStore(row, layouts); err != nil {
				return fmt.Errorf("update: %w", err)
			}
			row, err = normalize.Normalize(row, fields, m.schema.TypeDefault, layouts, updateNulls)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			if _, err := m.conn.Update(ctx, m.table, row, conditionFields, updateNulls); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("rows updated", "table", m.table, "count", len(set))

	res, err := m.hooks.Finish(ctx, ev, set)
	if err != nil {
		return nil, err
	}
	return resultAs[record.Set](hook.OpUpdate, res)
}

// UpdateBatch applies one record's values to every row matching where in a
// single statement. Values go to the connection as given; only fields
// unknown to the table are dropped. Reports whether any row changed.
func (m *Mapper) UpdateBatch(ctx context.Context, rec *record.Record, where query.Conditions) (bool, error) {
	if err := m.requireTable(); err != nil {
		return false, err
	}
	if rec == nil {
		return false, m.inputError("update batch: nil record")
	}

	set := record.Set{rec}
	args := &hook.Args{Data: &set, Conditions: &where}
	ev, err := m.hooks.Begin(ctx, hook.OpUpdateBatch, m.table, args)
	if err != nil {
		return false, err
	}

	var changed bool
	err = m.transaction(ctx, func(ctx context.Context) error {
		fields, err := m.schema.Fields(ctx)
		if err != nil {
			return err
		}
		for _, r := range set {
			ok, err := m.conn.UpdateBatch(ctx, m.table, r.Only(fields.Names()...), where)
			if err != nil {
				return err
			}
			changed = changed || ok
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	res, err := m.hooks.Finish(ctx, ev, changed)
	if err != nil {
		return false, err
	}
	return resultAs[bool](hook.OpUpdateBatch, res)
}

// Delete removes every row matching where. It reports true even when no
// row matched.
func (m *Mapper) Delete(ctx context.Context, where query.Conditions) (bool, error) {
	if err := m.requireTable(); err != nil {
		return false, err
	}

	args := &hook.Args{Conditions: &where}
	ev, err := m.hooks.Begin(ctx, hook.OpDelete, m.table, args)
	if err != nil {
		return false, err
	}

	err = m.transaction(ctx, func(ctx context.Context) error {
		_, err := m.conn.Delete(ctx, m.table, where)
		return err
	})
	if err != nil {
		return false, err
	}
	slog.Info("rows deleted", "table", m.table, "conditions", len(where))

	res, err := m.hooks.Finish(ctx, ev, true)
	if err != nil {
		return false, err
	}
	return resultAs[bool](hook.OpDelete, res)
}

// DeleteByKey deletes the row with the given primary-key value. A scalar key
// requires a single-column primary key.
func (m *Mapper) DeleteByKey(ctx context.Context, key any) (bool, error) {
	where, err := m.keyConditions(key)
	if err != nil {
		return false, err
	}
	return m.Delete(ctx, where)
}

// Flush replaces the rows matching where with data: delete, then create, in
// one transaction. A failing half aborts the call with a reconciliation
// error naming it.
func (m *Mapper) Flush(ctx context.Context, data any, where query.Conditions) (record.Set, error) {
	if err := m.requireTable(); err != nil {
		return nil, err
	}
	set, err := m.Bind(data)
	if err != nil {
		return nil, err
	}

	args := &hook.Args{Data: &set, Conditions: &where}
	ev, err := m.hooks.Begin(ctx, hook.OpFlush, m.table, args)
	if err != nil {
		return nil, err
	}

	var created record.Set
	err = m.transaction(ctx, func(ctx context.Context) error {
		ok, err := m.Delete(ctx, where)
		if err != nil || !ok {
			return &Error{Code: ErrCodeReconciliation, Table: m.table, Message: "flush: delete failed", Err: err}
		}
		if len(set) == 0 {
			created = record.Set{}
			return nil
		}
		created, err = m.Create(ctx, set)
		if err != nil || len(created) != len(set) {
			return &Error{Code: ErrCodeReconciliation, Table: m.table, Message: "flush: create failed", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := m.hooks.Finish(ctx, ev, created)
	if err != nil {
		return nil, err
	}
	return resultAs[record.Set](hook.OpFlush, res)
}
