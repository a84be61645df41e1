package mapper

import (
	"context"
	"slices"
	"strings"

	"github.com/roach88/rowmap/internal/normalize"
	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// fakeConn records every call and returns canned results.
type fakeConn struct {
	tables map[string][]schema.Column
	rows   []map[string]any

	// failInsert and failUpdate make the n-th insert or update (1-based)
	// return failErr; failDelete makes every delete return it.
	failInsert int
	failUpdate int
	failDelete bool
	failErr    error

	calls    []string
	queries  []*query.Select
	inserted []*record.Record
	updated  []*record.Record
	updateOn [][]string
	batches  []query.Conditions
	deletes  []query.Conditions
	nextID   int64
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		tables: map[string][]schema.Column{
			"t": {
				{Name: "id", Type: "INTEGER", Primary: true, AutoIncrement: true},
				{Name: "cat", Type: "TEXT", Nullable: true},
				{Name: "status", Type: "TEXT", Default: "new", HasDefault: true},
				{Name: "qty", Type: "INTEGER"},
				{Name: "note", Type: "TEXT", Nullable: true},
			},
			"users": {
				{Name: "id", Type: "INTEGER", Primary: true, AutoIncrement: true},
				{Name: "name", Type: "TEXT"},
			},
			"profiles": {
				{Name: "user_id", Type: "INTEGER"},
				{Name: "bio", Type: "TEXT", Nullable: true},
			},
		},
	}
}

func (f *fakeConn) Columns(_ context.Context, table string) ([]schema.Column, error) {
	f.calls = append(f.calls, "columns:"+table)
	return slices.Clone(f.tables[table]), nil
}

func (f *fakeConn) DefaultFor(sqlType string) any {
	if schema.FamilyOf(sqlType) == schema.FamilyInteger {
		return int64(0)
	}
	return ""
}

func (f *fakeConn) Query(_ context.Context, q *query.Select) ([]map[string]any, error) {
	f.calls = append(f.calls, "query")
	f.queries = append(f.queries, q)
	out := make([]map[string]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = make(map[string]any, len(r))
		for k, v := range r {
			out[i][k] = v
		}
	}
	return out, nil
}

func (f *fakeConn) Insert(_ context.Context, _ string, rec *record.Record, _ string, autoIncrement bool) (int64, error) {
	f.calls = append(f.calls, "insert")
	if f.failInsert == len(f.inserted)+1 {
		return 0, f.failErr
	}
	f.inserted = append(f.inserted, rec)
	if !autoIncrement {
		return 0, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeConn) Update(_ context.Context, _ string, rec *record.Record, conditionFields []string, _ bool) (int64, error) {
	f.calls = append(f.calls, "update")
	if f.failUpdate == len(f.updated)+1 {
		return 0, f.failErr
	}
	f.updated = append(f.updated, rec)
	f.updateOn = append(f.updateOn, conditionFields)
	return 1, nil
}

func (f *fakeConn) UpdateBatch(_ context.Context, _ string, rec *record.Record, where query.Conditions) (bool, error) {
	f.calls = append(f.calls, "updateBatch")
	f.updated = append(f.updated, rec)
	f.batches = append(f.batches, where)
	return true, nil
}

func (f *fakeConn) Delete(_ context.Context, _ string, where query.Conditions) (bool, error) {
	f.calls = append(f.calls, "delete")
	if f.failDelete {
		return false, f.failErr
	}
	f.deletes = append(f.deletes, where)
	return false, nil
}

func (f *fakeConn) Begin(context.Context) error {
	f.calls = append(f.calls, "begin")
	return nil
}

func (f *fakeConn) Commit(context.Context) error {
	f.calls = append(f.calls, "commit")
	return nil
}

func (f *fakeConn) Rollback(context.Context) error {
	f.calls = append(f.calls, "rollback")
	return nil
}

func (f *fakeConn) Layouts() normalize.Layouts {
	return normalize.DefaultLayouts
}

// writes returns the recorded calls minus schema and query reads.
func (f *fakeConn) writes() []string {
	var out []string
	for _, c := range f.calls {
		if c == "query" || strings.HasPrefix(c, "columns:") {
			continue
		}
		out = append(out, c)
	}
	return out
}
