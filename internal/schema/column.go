package schema

import "strings"

// Column describes one table column as reported by introspection.
type Column struct {
	Name string
	Type string // declared SQL type, e.g. "VARCHAR(32)"

	Nullable bool

	// Default is the column default. HasDefault distinguishes a NULL default
	// from no default at all. Synthesized marks defaults filled in by the
	// Cache from the type family.
	Default     any
	HasDefault  bool
	Synthesized bool

	Primary       bool
	AutoIncrement bool
}

// Family groups SQL types by their storage-native Go representation.
type Family int

const (
	FamilyString Family = iota
	FamilyInteger
	FamilyFloat
	FamilyBoolean
	FamilyDate
	FamilyDateTime
	FamilyBlob
)

func (f Family) String() string {
	switch f {
	case FamilyInteger:
		return "integer"
	case FamilyFloat:
		return "float"
	case FamilyBoolean:
		return "boolean"
	case FamilyDate:
		return "date"
	case FamilyDateTime:
		return "datetime"
	case FamilyBlob:
		return "blob"
	default:
		return "string"
	}
}

// FamilyOf classifies a declared SQL type. The rules follow SQLite type
// affinity, with BOOL, DATE and DATETIME/TIMESTAMP split out.
func FamilyOf(sqlType string) Family {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	switch {
	case strings.Contains(t, "BOOL"):
		return FamilyBoolean
	case strings.Contains(t, "DATETIME"), strings.Contains(t, "TIMESTAMP"):
		return FamilyDateTime
	case strings.Contains(t, "DATE"):
		return FamilyDate
	case strings.Contains(t, "INT"):
		return FamilyInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return FamilyString
	case strings.Contains(t, "BLOB"):
		return FamilyBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "DEC"), strings.Contains(t, "NUMERIC"):
		return FamilyFloat
	default:
		return FamilyString
	}
}

// Family returns the column's type family.
func (c Column) Family() Family {
	return FamilyOf(c.Type)
}

// Expr is a column default given as a SQL expression, e.g. CURRENT_TIMESTAMP.
// Writers render it inline instead of binding it as a parameter.
type Expr string
