package store

import (
	"context"
	"fmt"

	"github.com/roach88/rowmap/internal/query"
)

// Query renders q and returns its rows as column → value maps.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, q *query.Select) ([]map[string]any, error) {
	stmt, args, err := q.Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	logStatement("select", q.From, stmt, args)

	rows, err := s.ext().QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.From, err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}
