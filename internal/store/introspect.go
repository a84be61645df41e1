package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/rowmap/internal/query"
	"github.com/roach88/rowmap/internal/schema"
)

// tableInfo is one row of PRAGMA table_info.
type tableInfo struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

// Columns returns the table's columns in declaration order.
//
// A table with a single INTEGER primary key column reports that column as
// auto-increment: SQLite aliases it to the rowid and assigns it on insert.
func (s *Store) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	var infos []tableInfo
	stmt := "PRAGMA table_info(" + query.QuoteIdent(table) + ")"
	if err := sqlx.SelectContext(ctx, s.ext(), &infos, stmt); err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}

	pkCount := 0
	for _, info := range infos {
		if info.PK > 0 {
			pkCount++
		}
	}

	cols := make([]schema.Column, 0, len(infos))
	for _, info := range infos {
		def, hasDefault := parseDefault(info.Default)
		primary := info.PK > 0
		cols = append(cols, schema.Column{
			Name:          info.Name,
			Type:          info.Type,
			Nullable:      info.NotNull == 0 && !primary,
			Default:       def,
			HasDefault:    hasDefault,
			Primary:       primary,
			AutoIncrement: primary && pkCount == 1 && strings.EqualFold(strings.TrimSpace(info.Type), "INTEGER"),
		})
	}

	return cols, nil
}

// DefaultFor returns the generic default for a declared SQL type.
func (s *Store) DefaultFor(sqlType string) any {
	switch schema.FamilyOf(sqlType) {
	case schema.FamilyInteger:
		return int64(0)
	case schema.FamilyFloat:
		return float64(0)
	case schema.FamilyBoolean:
		return false
	case schema.FamilyDate:
		return "1970-01-01"
	case schema.FamilyDateTime:
		return "1970-01-01 00:00:00"
	case schema.FamilyBlob:
		return []byte{}
	default:
		return ""
	}
}

// parseDefault decodes the dflt_value text of PRAGMA table_info.
//
//	'text'  → string (with '' unescaped)
//	42      → int64
//	4.2     → float64
//	NULL    → nil (HasDefault true)
//	TRUE    → int64(1)
//	other   → schema.Expr
func parseDefault(raw sql.NullString) (any, bool) {
	if !raw.Valid {
		return nil, false
	}

	lit := strings.TrimSpace(raw.String)
	switch strings.ToUpper(lit) {
	case "NULL":
		return nil, true
	case "TRUE":
		return int64(1), true
	case "FALSE":
		return int64(0), true
	}

	if len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		return strings.ReplaceAll(lit[1:len(lit)-1], "''", "'"), true
	}
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f, true
	}

	return schema.Expr(lit), true
}
