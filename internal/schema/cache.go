package schema

import (
	"context"
	"fmt"
	"log/slog"
)

// Introspector is the low-level schema metadata source.
type Introspector interface {
	// Columns returns the table's columns in declaration order.
	Columns(ctx context.Context, table string) ([]Column, error)

	// DefaultFor returns the generic default value for a declared SQL type,
	// e.g. 0 for integers and "" for strings.
	DefaultFor(sqlType string) any
}

// Fields is the ordered column set of one table.
type Fields struct {
	columns []Column
	index   map[string]int
}

func newFields(cols []Column) *Fields {
	f := &Fields{
		columns: cols,
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		f.index[c.Name] = i
	}
	return f
}

// Get returns the column descriptor for name.
func (f *Fields) Get(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, false
	}
	return f.columns[i], true
}

// Has reports whether the table has the column.
func (f *Fields) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Names returns the column names in declaration order.
func (f *Fields) Names() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.Name
	}
	return out
}

// Columns returns a copy of the descriptors in declaration order.
func (f *Fields) Columns() []Column {
	out := make([]Column, len(f.columns))
	copy(out, f.columns)
	return out
}

// Len returns the number of columns.
func (f *Fields) Len() int {
	return len(f.columns)
}

// WithoutAutoIncrement returns the fields minus auto-increment columns.
func (f *Fields) WithoutAutoIncrement() *Fields {
	cols := make([]Column, 0, len(f.columns))
	for _, c := range f.columns {
		if !c.AutoIncrement {
			cols = append(cols, c)
		}
	}
	return newFields(cols)
}

// Cache memoizes the column metadata of one table.
//
// A Cache is local to its mapper and is not safe for concurrent use.
// After a DDL change call Reset; nothing invalidates the cache implicitly.
type Cache struct {
	table  string
	source Introspector
	fields *Fields
}

// NewCache creates a cache for table backed by source.
func NewCache(table string, source Introspector) *Cache {
	return &Cache{table: table, source: source}
}

// Fields returns the table's columns, fetching them on first use.
//
// Every non-nullable, non-primary column without a declared default gets a
// synthesized default from the introspector's type defaults.
func (c *Cache) Fields(ctx context.Context) (*Fields, error) {
	if c.fields != nil {
		return c.fields, nil
	}

	cols, err := c.source.Columns(ctx, c.table)
	if err != nil {
		return nil, fmt.Errorf("load schema for %s: %w", c.table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("load schema for %s: table has no columns", c.table)
	}

	synthesized := 0
	for i := range cols {
		col := &cols[i]
		if col.Nullable || col.HasDefault || col.Primary {
			continue
		}
		col.Default = c.source.DefaultFor(col.Type)
		col.HasDefault = true
		col.Synthesized = true
		synthesized++
	}

	slog.Debug("schema loaded",
		"table", c.table,
		"columns", len(cols),
		"synthesized_defaults", synthesized,
	)

	c.fields = newFields(cols)
	return c.fields, nil
}

// FieldsWithoutAutoIncrement is Fields minus identity columns; used before
// insert so the caller never supplies the generated key.
func (c *Cache) FieldsWithoutAutoIncrement(ctx context.Context) (*Fields, error) {
	f, err := c.Fields(ctx)
	if err != nil {
		return nil, err
	}
	return f.WithoutAutoIncrement(), nil
}

// TypeDefault returns the generic default for a column's declared type,
// ignoring any column-specific default.
func (c *Cache) TypeDefault(col Column) any {
	return c.source.DefaultFor(col.Type)
}

// Reset drops the cached metadata.
func (c *Cache) Reset() {
	c.fields = nil
}

// Table returns the table this cache describes.
func (c *Cache) Table() string {
	return c.table
}
