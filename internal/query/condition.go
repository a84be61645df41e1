package query

import (
	"fmt"
	"sort"
	"strings"
)

// Condition is the value side of one WHERE clause.
//
// This is a sealed interface - only types in this package implement it.
// Condition types:
//   - Equals: column = value (IS NULL for a nil value)
//   - Comparison: column <op> value
//   - Raw: a boolean SQL fragment appended verbatim
type Condition interface {
	condition() // Marker method - seals interface to this package
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Value any
}

func (Equals) condition() {}

// Comparison matches rows with an operator other than plain equality.
// For IN and NOT IN, Value must be a []any.
type Comparison struct {
	Op    string
	Value any
}

func (Comparison) condition() {}

// Raw is a boolean expression with its own placeholders and arguments.
type Raw struct {
	Expr string
	Args []any
}

func (Raw) condition() {}

// operators lists the accepted Comparison operators.
var operators = map[string]bool{
	"=": true, "!=": true, "<>": true, ">": true, ">=": true, "<": true, "<=": true,
	"LIKE": true, "NOT LIKE": true, "IN": true, "NOT IN": true,
	"IS NULL": true, "IS NOT NULL": true,
}

// Clause binds a condition to a column reference (bare "name" or
// "alias.name"). Raw clauses have an empty Column.
type Clause struct {
	Column string
	Cond   Condition
}

// IsRaw reports whether the clause is a raw expression.
func (c Clause) IsRaw() bool {
	_, ok := c.Cond.(Raw)
	return ok
}

// Conditions is an ordered condition set. Clauses are ANDed.
type Conditions []Clause

// Match builds equality conditions from a map. Keys are sorted so the
// generated SQL is deterministic.
func Match(m map[string]any) Conditions {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Conditions, 0, len(keys))
	for _, k := range keys {
		out = append(out, Clause{Column: k, Cond: Equals{Value: m[k]}})
	}
	return out
}

// Where starts a condition set with one clause.
func Where(column string, cond Condition) Conditions {
	return Conditions{{Column: column, Cond: cond}}
}

// And returns c with another clause appended. A plain value (anything that is
// not a Condition) is treated as Equals.
func (c Conditions) And(column string, cond any) Conditions {
	cd, ok := cond.(Condition)
	if !ok {
		cd = Equals{Value: cond}
	}
	return append(c, Clause{Column: column, Cond: cd})
}

// Raw returns c with a raw expression appended.
func (c Conditions) Raw(expr string, args ...any) Conditions {
	return append(c, Clause{Cond: Raw{Expr: expr, Args: args}})
}

// Columns returns the column references of the non-raw clauses, in order and
// without duplicates.
func (c Conditions) Columns() []string {
	var out []string
	seen := make(map[string]bool)
	for _, cl := range c {
		if cl.IsRaw() || seen[cl.Column] {
			continue
		}
		seen[cl.Column] = true
		out = append(out, cl.Column)
	}
	return out
}

// Get returns the first condition for column.
func (c Conditions) Get(column string) (Condition, bool) {
	for _, cl := range c {
		if !cl.IsRaw() && cl.Column == column {
			return cl.Cond, true
		}
	}
	return nil, false
}

// Clone returns a copy safe to append to.
func (c Conditions) Clone() Conditions {
	out := make(Conditions, len(c))
	copy(out, c)
	return out
}

// Eq is column = value.
func Eq(value any) Condition { return Equals{Value: value} }

// Ne is column != value.
func Ne(value any) Condition { return Comparison{Op: "!=", Value: value} }

// Gt is column > value.
func Gt(value any) Condition { return Comparison{Op: ">", Value: value} }

// Ge is column >= value.
func Ge(value any) Condition { return Comparison{Op: ">=", Value: value} }

// Lt is column < value.
func Lt(value any) Condition { return Comparison{Op: "<", Value: value} }

// Le is column <= value.
func Le(value any) Condition { return Comparison{Op: "<=", Value: value} }

// Like is column LIKE pattern.
func Like(pattern string) Condition { return Comparison{Op: "LIKE", Value: pattern} }

// In is column IN (values...).
func In(values ...any) Condition { return Comparison{Op: "IN", Value: values} }

// NotIn is column NOT IN (values...).
func NotIn(values ...any) Condition { return Comparison{Op: "NOT IN", Value: values} }

// IsNull is column IS NULL.
func IsNull() Condition { return Comparison{Op: "IS NULL"} }

// NotNull is column IS NOT NULL.
func NotNull() Condition { return Comparison{Op: "IS NOT NULL"} }

// RawExpr is a raw boolean expression.
func RawExpr(expr string, args ...any) Condition { return Raw{Expr: expr, Args: args} }

// Qualify prefixes a bare column reference with qualifier. References that
// already contain a "." are returned unchanged.
func Qualify(column, qualifier string) string {
	if strings.Contains(column, ".") || qualifier == "" {
		return column
	}
	return qualifier + "." + column
}

// CompileWhere renders conditions as a parameterized boolean expression.
// Returns "" for an empty set.
// CRITICAL: Values are NEVER interpolated - always ? placeholders.
func CompileWhere(c Conditions) (string, []any, error) {
	if len(c) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(c))
	var params []any
	for _, cl := range c {
		sql, args, err := compileClause(cl)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, args...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func compileClause(cl Clause) (string, []any, error) {
	switch cond := cl.Cond.(type) {
	case Raw:
		if strings.TrimSpace(cond.Expr) == "" {
			return "", nil, fmt.Errorf("empty raw condition")
		}
		return "(" + cond.Expr + ")", cond.Args, nil
	case Equals:
		if cl.Column == "" {
			return "", nil, fmt.Errorf("condition without column")
		}
		if cond.Value == nil {
			return QuoteIdent(cl.Column) + " IS NULL", nil, nil
		}
		return QuoteIdent(cl.Column) + " = ?", []any{cond.Value}, nil
	case Comparison:
		return compileComparison(cl.Column, cond)
	case nil:
		return "", nil, fmt.Errorf("nil condition for %q", cl.Column)
	default:
		return "", nil, fmt.Errorf("unsupported condition type: %T", cl.Cond)
	}
}

func compileComparison(column string, cmp Comparison) (string, []any, error) {
	if column == "" {
		return "", nil, fmt.Errorf("condition without column")
	}
	op := strings.ToUpper(strings.TrimSpace(cmp.Op))
	if !operators[op] {
		return "", nil, fmt.Errorf("unsupported operator %q", cmp.Op)
	}
	col := QuoteIdent(column)

	switch op {
	case "IS NULL", "IS NOT NULL":
		return col + " " + op, nil, nil
	case "IN", "NOT IN":
		values, ok := cmp.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("%s on %q needs []any, got %T", op, column, cmp.Value)
		}
		if len(values) == 0 {
			// Empty IN never matches; empty NOT IN always does.
			if op == "IN" {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		return fmt.Sprintf("%s %s (%s)", col, op, marks), values, nil
	default:
		return fmt.Sprintf("%s %s ?", col, op), []any{cmp.Value}, nil
	}
}
