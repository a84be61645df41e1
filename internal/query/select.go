package query

import (
	"fmt"
	"strings"
)

// Select is the read query object handed to a connection.
//
// Semantics:
//
//	SELECT <columns> FROM <from | joins> WHERE <where> ORDER BY <orders> LIMIT <limit> OFFSET <offset>
//
// When Joins is non-empty its first entry is the FROM table and From is
// ignored.
type Select struct {
	From    string
	Joins   []Join
	Columns []string
	Where   Conditions
	Orders  []Order
	Limit   int
	Offset  int
}

// Modifier mutates a query after assembly.
type Modifier func(*Select)

// Build renders the query as parameterized SQL.
// CRITICAL: All values are parameterized (never interpolated).
func (s *Select) Build() (string, []any, error) {
	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	b.WriteString(compileColumns(s.Columns))

	from, err := s.compileFrom()
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" FROM ")
	b.WriteString(from)

	where, whereParams, err := CompileWhere(s.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}

	if len(s.Orders) > 0 {
		parts := make([]string, len(s.Orders))
		for i, o := range s.Orders {
			if o.Column == "" {
				return "", nil, fmt.Errorf("order entry %d has no column", i)
			}
			parts[i] = o.sql()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	switch {
	case s.Limit > 0:
		b.WriteString(" LIMIT ?")
		params = append(params, s.Limit)
		if s.Offset > 0 {
			b.WriteString(" OFFSET ?")
			params = append(params, s.Offset)
		}
	case s.Offset > 0:
		// SQLite needs a LIMIT before OFFSET; -1 means unbounded.
		b.WriteString(" LIMIT -1 OFFSET ?")
		params = append(params, s.Offset)
	}

	return b.String(), params, nil
}

func (s *Select) compileFrom() (string, error) {
	if len(s.Joins) == 0 {
		if s.From == "" {
			return "", fmt.Errorf("query has no table")
		}
		return QuoteIdent(s.From), nil
	}

	var b strings.Builder
	for i, j := range s.Joins {
		if j.Table == "" {
			return "", fmt.Errorf("join %d has no table", i)
		}
		table := QuoteIdent(j.Table)
		if j.Alias != "" && j.Alias != j.Table {
			table += " AS " + QuoteIdent(j.Alias)
		}
		if i == 0 {
			b.WriteString(table)
			continue
		}
		typ := j.Type
		if typ == "" {
			typ = InnerJoin
		}
		fmt.Fprintf(&b, " %s JOIN %s", typ, table)
		if j.On != "" {
			b.WriteString(" ON " + j.On)
		}
	}
	return b.String(), nil
}

func compileColumns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = QuoteExpr(c)
	}
	return strings.Join(parts, ", ")
}

// QuoteIdent quotes a possibly qualified identifier: users.name becomes
// "users"."name". Expressions (anything with parentheses, spaces or quotes)
// and "*" parts pass through unchanged.
func QuoteIdent(name string) string {
	if strings.ContainsAny(name, `()" `) {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = `"` + p + `"`
		}
	}
	return strings.Join(parts, ".")
}

// QuoteExpr quotes a projection entry, handling "expr AS alias".
func QuoteExpr(s string) string {
	if i := strings.Index(strings.ToUpper(s), " AS "); i >= 0 {
		return QuoteIdent(strings.TrimSpace(s[:i])) + " AS " + QuoteIdent(strings.TrimSpace(s[i+4:]))
	}
	return QuoteIdent(s)
}
