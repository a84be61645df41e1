package mapper

import (
	"fmt"
	"slices"

	"github.com/roach88/rowmap/internal/hook"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// Mapper exposes record operations over one table.
//
// A Mapper is not safe for concurrent use: passthrough calls (Where, Join,
// ...) accumulate state consumed by the next read.
type Mapper struct {
	conn       Connection
	table      string
	alias      string
	primaryKey []string

	// transactions wraps every mutating call in Begin/Commit.
	transactions bool

	factory   record.Factory
	casts     map[string]record.Cast
	modifiers []query.Modifier

	schema      *schema.Cache
	joinSchemas map[string]*schema.Cache
	hooks       *hook.Gateway

	// Per-read state, reset after every read.
	pending query.Select
	joins   query.Registry
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithAlias sets the alias used to qualify columns in joined reads.
func WithAlias(alias string) Option {
	return func(m *Mapper) {
		m.alias = alias
	}
}

// WithPrimaryKey sets the primary-key columns. The default is "id".
func WithPrimaryKey(columns ...string) Option {
	return func(m *Mapper) {
		m.primaryKey = slices.Clone(columns)
	}
}

// WithTransactions enables or disables transactions around mutating calls.
func WithTransactions(enabled bool) Option {
	return func(m *Mapper) {
		m.transactions = enabled
	}
}

// WithRecordFactory sets the constructor used to materialize rows and bind
// map input. The default is record.FromMap.
func WithRecordFactory(f record.Factory) Option {
	return func(m *Mapper) {
		m.factory = f
	}
}

// WithCasts declares per-field casts applied to every record the mapper
// binds, unless the record declares its own.
func WithCasts(casts map[string]record.Cast) Option {
	return func(m *Mapper) {
		m.casts = casts
	}
}

// WithDispatcher attaches an external lifecycle dispatcher.
func WithDispatcher(d hook.Dispatcher) Option {
	return func(m *Mapper) {
		m.hooks.SetDispatcher(d)
	}
}

// WithModifier registers a query modifier run on every assembled read.
func WithModifier(mod query.Modifier) Option {
	return func(m *Mapper) {
		m.modifiers = append(m.modifiers, mod)
	}
}

// New creates a mapper for table on conn.
//
// The connection is mandatory. The table may be empty for a mapper that only
// reads through joins; any other call then fails with a configuration error.
func New(conn Connection, table string, opts ...Option) (*Mapper, error) {
	m := &Mapper{
		conn:         conn,
		table:        table,
		primaryKey:   []string{"id"},
		transactions: true,
		factory:      record.FromMap,
		joinSchemas:  make(map[string]*schema.Cache),
		hooks:        hook.NewGateway(nil),
	}
	for _, opt := range opts {
		opt(m)
	}

	if conn == nil {
		return nil, m.configError("no connection")
	}
	if len(m.primaryKey) == 0 {
		return nil, m.configError("no primary key defined")
	}
	for _, k := range m.primaryKey {
		if k == "" {
			return nil, m.configError("empty primary key column")
		}
	}
	if m.factory == nil {
		return nil, m.configError("nil record factory")
	}

	m.schema = schema.NewCache(table, conn)
	return m, nil
}

// Table returns the bound table name.
func (m *Mapper) Table() string { return m.table }

// Alias returns the alias, empty when unset.
func (m *Mapper) Alias() string { return m.alias }

// PrimaryKey returns the primary-key columns.
func (m *Mapper) PrimaryKey() []string { return slices.Clone(m.primaryKey) }

// Schema returns the mapper's schema cache.
func (m *Mapper) Schema() *schema.Cache { return m.schema }

// On registers a local hook handler. Local handlers run after the external
// dispatcher unless it stopped the event.
func (m *Mapper) On(p hook.Phase, o hook.Op, h hook.Handler) {
	m.hooks.On(p, o, h)
}

// Hooks returns the mapper's hook gateway.
func (m *Mapper) Hooks() *hook.Gateway { return m.hooks }

// ResetSchema drops cached column metadata for the table and any joined
// tables. Call it after a DDL change.
func (m *Mapper) ResetSchema() {
	m.schema.Reset()
	clear(m.joinSchemas)
}

// qualifier is the prefix for bare column keys in joined reads.
func (m *Mapper) qualifier() string {
	if m.alias != "" {
		return m.alias
	}
	return m.table
}

func (m *Mapper) requireTable() error {
	if m.table == "" {
		return m.configError("no table bound")
	}
	return nil
}

// Bind converts caller input into a record set.
//
// Accepted shapes: *record.Record, record.Set, []*record.Record,
// map[string]any, map[any]any with string keys, and slices of maps or
// records ([]map[string]any, []any). Records are used as given, so
// generated keys written back by Create are visible to the caller.
func (m *Mapper) Bind(data any) (record.Set, error) {
	switch v := data.(type) {
	case nil:
		return nil, m.inputError("dataset is nil")
	case *record.Record:
		if v == nil {
			return nil, m.inputError("dataset is a nil record")
		}
		return record.Set{m.withCasts(v)}, nil
	case record.Set:
		return m.bindEach(len(v), func(i int) any { return v[i] })
	case []*record.Record:
		return m.bindEach(len(v), func(i int) any { return v[i] })
	case []map[string]any:
		return m.bindEach(len(v), func(i int) any { return v[i] })
	case []any:
		return m.bindEach(len(v), func(i int) any { return v[i] })
	}

	rec, err := m.bindRecord(data)
	if err != nil {
		return nil, err
	}
	return record.Set{rec}, nil
}

func (m *Mapper) bindEach(n int, at func(int) any) (record.Set, error) {
	out := make(record.Set, 0, n)
	for i := 0; i < n; i++ {
		rec, err := m.bindRecord(at(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *Mapper) bindRecord(v any) (*record.Record, error) {
	switch t := v.(type) {
	case *record.Record:
		if t == nil {
			return nil, m.inputError("nil record")
		}
		return m.withCasts(t), nil
	case map[string]any:
		return m.withCasts(m.factory(t)), nil
	case map[any]any:
		values := make(map[string]any, len(t))
		for k, val := range t {
			name, ok := k.(string)
			if !ok {
				return nil, m.inputError("column name %v is %T, not string", k, k)
			}
			values[name] = val
		}
		return m.withCasts(m.factory(values)), nil
	default:
		return nil, m.inputError("dataset is %T, want a record or a list of records", v)
	}
}

func (m *Mapper) withCasts(r *record.Record) *record.Record {
	if len(m.casts) > 0 && !r.HasCasts() {
		r.WithCasts(m.casts)
	}
	return r
}
