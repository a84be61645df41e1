package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// Insert writes rec as one row of table.
//
// When autoIncrement is set the generated rowid is returned; otherwise the
// returned id is 0 and key is informational only.
func (s *Store) Insert(ctx context.Context, table string, rec *record.Record, key string, autoIncrement bool) (int64, error) {
	var stmt string
	var args []any

	if rec.Len() == 0 {
		stmt = "INSERT INTO " + query.QuoteIdent(table) + " DEFAULT VALUES"
	} else {
		cols := make([]string, 0, rec.Len())
		marks := make([]string, 0, rec.Len())
		rec.Each(func(k string, v any) {
			cols = append(cols, query.QuoteIdent(k))
			mark, bound := bind(v)
			marks = append(marks, mark)
			args = append(args, bound...)
		})
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			query.QuoteIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	}
	logStatement("insert", table, stmt, args)

	res, err := s.ext().ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	if !autoIncrement {
		return 0, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last id for %s: %w", table, key, err)
	}
	return id, nil
}

// Update writes rec to the row matched by conditionFields, whose values are
// taken from rec itself. Nil values are skipped unless includeNulls is set.
// Returns the number of affected rows; an update with nothing to set is a
// no-op returning 0.
func (s *Store) Update(ctx context.Context, table string, rec *record.Record, conditionFields []string, includeNulls bool) (int64, error) {
	if len(conditionFields) == 0 {
		return 0, fmt.Errorf("update %s: no condition fields", table)
	}

	var where query.Conditions
	for _, field := range conditionFields {
		v, ok := rec.Get(field)
		if !ok {
			return 0, fmt.Errorf("update %s: missing condition field %q", table, field)
		}
		where = where.And(field, query.Eq(v))
	}

	set := record.New()
	rec.Each(func(k string, v any) {
		if slices.Contains(conditionFields, k) {
			return
		}
		if v == nil && !includeNulls {
			return
		}
		set.Set(k, v)
	})
	if set.Len() == 0 {
		return 0, nil
	}

	return s.update(ctx, table, set, where)
}

// UpdateBatch applies rec to every row matching where. Nil values are
// written as NULL. Reports whether any row changed.
func (s *Store) UpdateBatch(ctx context.Context, table string, rec *record.Record, where query.Conditions) (bool, error) {
	if rec.Len() == 0 {
		return false, nil
	}
	n, err := s.update(ctx, table, rec, where)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes every row matching where. An empty condition set deletes
// all rows. Reports whether any row was removed.
func (s *Store) Delete(ctx context.Context, table string, where query.Conditions) (bool, error) {
	stmt := "DELETE FROM " + query.QuoteIdent(table)
	clause, args, err := query.CompileWhere(where)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	if clause != "" {
		stmt += " WHERE " + clause
	}
	logStatement("delete", table, stmt, args)

	res, err := s.ext().ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: rows affected: %w", table, err)
	}
	return n > 0, nil
}

func (s *Store) update(ctx context.Context, table string, set *record.Record, where query.Conditions) (int64, error) {
	assigns := make([]string, 0, set.Len())
	var args []any
	set.Each(func(k string, v any) {
		mark, bound := bind(v)
		assigns = append(assigns, query.QuoteIdent(k)+" = "+mark)
		args = append(args, bound...)
	})

	stmt := fmt.Sprintf("UPDATE %s SET %s", query.QuoteIdent(table), strings.Join(assigns, ", "))
	clause, whereArgs, err := query.CompileWhere(where)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	if clause != "" {
		stmt += " WHERE " + clause
		args = append(args, whereArgs...)
	}
	logStatement("update", table, stmt, args)

	res, err := s.ext().ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s: rows affected: %w", table, err)
	}
	return n, nil
}

// bind returns the SQL placeholder for v and its bound arguments.
// Expression defaults are inlined.
func bind(v any) (string, []any) {
	if e, ok := v.(schema.Expr); ok {
		return string(e), nil
	}
	return "?", []any{v}
}
