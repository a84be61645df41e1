package mapper

import (
	"context"
	"fmt"

	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/normalize"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// Where adds a condition to the next read. A value that is not a
// query.Condition means equality.
func (m *Mapper) Where(column string, cond any) *Mapper {
	m.pending.Where = m.pending.Where.And(column, cond)
	return m
}

// WhereRaw adds a raw boolean expression to the next read.
func (m *Mapper) WhereRaw(expr string, args ...any) *Mapper {
	m.pending.Where = m.pending.Where.Raw(expr, args...)
	return m
}

// OrderBy appends ordering entries to the next read.
func (m *Mapper) OrderBy(orders ...query.Order) *Mapper {
	m.pending.Orders = append(m.pending.Orders, orders...)
	return m
}

// Limit caps the rows of the next read. Zero means no limit.
func (m *Mapper) Limit(n int) *Mapper {
	m.pending.Limit = n
	return m
}

// Offset skips rows in the next read.
func (m *Mapper) Offset(n int) *Mapper {
	m.pending.Offset = n
	return m
}

// Columns sets an explicit projection for the next read.
func (m *Mapper) Columns(columns ...string) *Mapper {
	m.pending.Columns = append([]string(nil), columns...)
	return m
}

// Join adds an inner join for the next read. on is a raw SQL join
// condition, e.g. "p.user_id = u.id".
func (m *Mapper) Join(alias, table, on string) *Mapper {
	return m.join(query.InnerJoin, alias, table, on)
}

// LeftJoin adds a left join for the next read.
func (m *Mapper) LeftJoin(alias, table, on string) *Mapper {
	return m.join(query.LeftJoin, alias, table, on)
}

func (m *Mapper) join(typ query.JoinType, alias, table, on string) *Mapper {
	if m.joins.Len() == 0 && m.table != "" {
		m.joins.Add(query.Join{Alias: m.qualifier(), Table: m.table})
	}
	if alias == "" {
		alias = table
	}
	m.joins.Add(query.Join{
		Alias:  alias,
		Table:  table,
		On:     on,
		Type:   typ,
		Prefix: alias + "__",
	})
	return m
}

// Modify registers a query modifier run on every assembled read, after the
// mapper's own assembly steps.
func (m *Mapper) Modify(mod query.Modifier) *Mapper {
	m.modifiers = append(m.modifiers, mod)
	return m
}

// Assemble builds the read query for where and order combined with the
// pending passthrough state. It does not reset that state.
//
// Steps, in order:
//  1. the mapper is joined when the join registry holds more than one table
//  2. when joined, bare condition and order keys get the alias (or table)
//     prefix; raw conditions and dotted keys are left alone
//  3. conditions, then orders in caller sequence
//  4. FROM the registry tables when joined, else the bound table
//  5. limit and offset when either is non-zero
//  6. projection: caller columns, else * or the registry projection
//  7. registered modifiers, in registration order
func (m *Mapper) Assemble(ctx context.Context, where query.Conditions, order []query.Order, limit, offset int) (*query.Select, error) {
	joined := m.joins.Joined()

	conds := append(m.pending.Where.Clone(), where...)
	orders := append(append([]query.Order(nil), m.pending.Orders...), order...)

	if joined {
		qualifier := m.qualifier()
		for i, cl := range conds {
			if !cl.IsRaw() {
				conds[i].Column = query.Qualify(cl.Column, qualifier)
			}
		}
		for i, o := range orders {
			orders[i].Column = query.Qualify(o.Column, qualifier)
		}
	}

	q := &query.Select{
		Where:  conds,
		Orders: orders,
	}

	if joined {
		if err := m.loadJoinColumns(ctx); err != nil {
			return nil, err
		}
		q.Joins = m.joins.Entries()
	} else {
		if err := m.requireTable(); err != nil {
			return nil, err
		}
		q.From = m.table
	}

	if limit != 0 || offset != 0 {
		q.Limit, q.Offset = limit, offset
	}

	switch {
	case len(m.pending.Columns) > 0:
		q.Columns = append([]string(nil), m.pending.Columns...)
	case joined:
		q.Columns = m.joins.Projection()
	}

	for _, mod := range m.modifiers {
		mod(q)
	}
	return q, nil
}

// loadJoinColumns fills the column list of every registry entry.
func (m *Mapper) loadJoinColumns(ctx context.Context) error {
	for _, e := range m.joins.Entries() {
		if len(e.Columns) > 0 {
			continue
		}
		if e.Table == "" {
			return m.configError("join %q has no table", e.Alias)
		}

		cache := m.schema
		if e.Table != m.table {
			cache = m.joinSchemas[e.Table]
			if cache == nil {
				cache = schema.NewCache(e.Table, m.conn)
				m.joinSchemas[e.Table] = cache
			}
		}
		fields, err := cache.Fields(ctx)
		if err != nil {
			return err
		}
		e.Columns = fields.Names()
		m.joins.Add(e)
	}
	return nil
}

// resetQuery clears the per-read state.
func (m *Mapper) resetQuery() {
	m.pending = query.Select{}
	m.joins.Reset()
}

// Find returns the rows matching where, ordered by order, combined with any
// pending passthrough state.
func (m *Mapper) Find(ctx context.Context, where query.Conditions, order ...query.Order) (record.Set, error) {
	defer m.resetQuery()

	limit, offset := m.pending.Limit, m.pending.Offset
	args := &hook.Args{Conditions: &where, Order: &order, Limit: &limit, Offset: &offset}
	ev, err := m.hooks.Begin(ctx, hook.OpFind, m.table, args)
	if err != nil {
		return nil, err
	}

	q, err := m.Assemble(ctx, where, order, limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := m.conn.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	set := make(record.Set, 0, len(rows))
	for _, row := range rows {
		set = append(set, m.withCasts(m.factory(row)))
	}

	res, err := m.hooks.Finish(ctx, ev, set)
	if err != nil {
		return nil, err
	}
	return resultAs[record.Set](hook.OpFind, res)
}

// FindOne returns the first matching row, or nil when nothing matches.
func (m *Mapper) FindOne(ctx context.Context, where query.Conditions, order ...query.Order) (*record.Record, error) {
	m.Limit(1)
	set, err := m.Find(ctx, where, order...)
	if err != nil {
		return nil, err
	}
	return set.First(), nil
}

// FindByKey returns the row with the given primary-key value, or nil.
// A scalar key requires a single-column primary key; pass query.Conditions
// for composite keys.
func (m *Mapper) FindByKey(ctx context.Context, key any) (*record.Record, error) {
	where, err := m.keyConditions(key)
	if err != nil {
		m.resetQuery()
		return nil, err
	}
	return m.FindOne(ctx, where)
}

// Count returns the number of rows matching where. It emits find events
// whose result is the int64 count.
func (m *Mapper) Count(ctx context.Context, where query.Conditions) (int64, error) {
	defer m.resetQuery()

	m.pending.Columns = []string{"COUNT(*) AS count"}
	m.pending.Orders = nil
	limit, offset := 0, 0
	args := &hook.Args{Conditions: &where, Limit: &limit, Offset: &offset}
	ev, err := m.hooks.Begin(ctx, hook.OpFind, m.table, args)
	if err != nil {
		return 0, err
	}

	q, err := m.Assemble(ctx, where, nil, limit, offset)
	if err != nil {
		return 0, err
	}
	rows, err := m.conn.Query(ctx, q)
	if err != nil {
		return 0, err
	}

	var n int64
	if len(rows) > 0 {
		if n, err = normalize.ToInt64(rows[0]["count"]); err != nil {
			return 0, fmt.Errorf("count %s: %w", m.table, err)
		}
	}

	res, err := m.hooks.Finish(ctx, ev, n)
	if err != nil {
		return 0, err
	}
	return resultAs[int64](hook.OpFind, res)
}

// keyConditions turns a primary-key argument into conditions.
func (m *Mapper) keyConditions(key any) (query.Conditions, error) {
	switch k := key.(type) {
	case query.Conditions:
		return k, nil
	case map[string]any:
		return query.Match(k), nil
	}
	if len(m.primaryKey) != 1 {
		return nil, m.configError("scalar key %v needs exactly one primary key column, have %d", key, len(m.primaryKey))
	}
	return query.Where(m.primaryKey[0], query.Eq(key)), nil
}

// resultAs asserts the type of an after-event result.
func resultAs[T any](op hook.Op, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: after listener left result of type %T, want %T", op, v, zero)
	}
	return t, nil
}
