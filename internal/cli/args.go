package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowmap/internal/query"
)

// parseWhere turns flag values such as "status=open", "qty>=3" or
// "name~a%" into conditions. Values are read as YAML scalars, so 3 is an
// integer and null compares with IS NULL.
func parseWhere(exprs []string) (query.Conditions, error) {
	var where query.Conditions
	for _, expr := range exprs {
		col, op, raw, err := splitCondition(expr)
		if err != nil {
			return nil, err
		}
		val, err := parseScalar(raw)
		if err != nil {
			return nil, &inputError{msg: fmt.Sprintf("condition %q", expr), err: err}
		}

		var cond query.Condition
		switch op {
		case "=":
			cond = query.Eq(val)
			if val == nil {
				cond = query.IsNull()
			}
		case "!=":
			cond = query.Ne(val)
			if val == nil {
				cond = query.NotNull()
			}
		case ">":
			cond = query.Gt(val)
		case ">=":
			cond = query.Ge(val)
		case "<":
			cond = query.Lt(val)
		case "<=":
			cond = query.Le(val)
		case "~":
			cond = query.Like(raw)
		}
		where = where.And(col, cond)
	}
	return where, nil
}

func splitCondition(expr string) (col, op, raw string, err error) {
	i := strings.IndexAny(expr, "!=<>~")
	if i <= 0 {
		return "", "", "", &inputError{msg: fmt.Sprintf("condition %q: want column<op>value", expr)}
	}
	col = strings.TrimSpace(expr[:i])
	rest := expr[i:]
	switch {
	case strings.HasPrefix(rest, "!="), strings.HasPrefix(rest, ">="), strings.HasPrefix(rest, "<="):
		op = rest[:2]
	case rest[0] == '!':
		return "", "", "", &inputError{msg: fmt.Sprintf("condition %q: unknown operator", expr)}
	default:
		op = rest[:1]
	}
	return col, op, strings.TrimSpace(rest[len(op):]), nil
}

func parseScalar(raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, errors.New("value must be a scalar")
	}
	return v, nil
}

func parseOrders(specs []string) ([]query.Order, error) {
	orders := make([]query.Order, 0, len(specs))
	for _, s := range specs {
		o, err := query.ParseOrder(s)
		if err != nil {
			return nil, &inputError{msg: "order", err: err}
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// readData decodes a YAML data file ("-" reads stdin). The result is a
// mapping for one row or a sequence for many; shape checks are left to the
// mapper.
func readData(path string, stdin io.Reader) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &inputError{msg: "reading data", err: err}
	}

	var v any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return []any{}, nil
		}
		return nil, &inputError{msg: "parsing data", err: err}
	}
	return v, nil
}
