package normalize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/roach88/rowmap/internal/record"
	"github.com/roach88/rowmap/internal/schema"
)

// Layouts are the active driver's time formats (Go reference layouts).
type Layouts struct {
	Date     string
	DateTime string
}

// DefaultLayouts matches SQLite's date and datetime functions.
var DefaultLayouts = Layouts{
	Date:     "2006-01-02",
	DateTime: "2006-01-02 15:04:05",
}

// TypeDefaulter resolves the generic default of a column's declared type.
type TypeDefaulter func(col schema.Column) any

// Normalize computes storage-safe values for rec against the table fields.
//
// Per field:
//   - nil with updateNulls=false: omitted (partial update)
//   - rich kinds first become primitives (time → DateTime layout, JSON
//     marshalers → JSON text, Stringers → string); composites become nil
//   - nil: the column default for non-nullable columns, else nil
//   - "": nil for nullable columns, the type default for non-nullable ones
//   - anything else: coerced to the column's type family
//
// Fields unknown to the table are dropped. The returned record is new; rec is
// not modified.
func Normalize(rec *record.Record, fields *schema.Fields, typeDefault TypeDefaulter, layouts Layouts, updateNulls bool) (*record.Record, error) {
	out := record.New()

	for _, key := range rec.Keys() {
		col, ok := fields.Get(key)
		if !ok {
			continue
		}

		value := rec.Value(key)
		if value == nil && !updateNulls {
			continue
		}

		value, err := toPrimitive(value, layouts)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", key, err)
		}

		switch {
		case value == nil:
			if col.Nullable {
				out.Set(key, nil)
			} else {
				out.Set(key, col.Default)
			}
		case value == "":
			if col.Nullable {
				out.Set(key, nil)
			} else {
				out.Set(key, typeDefault(col))
			}
		default:
			coerced, err := Coerce(value, col.Family())
			if err != nil {
				return nil, fmt.Errorf("normalize %s: %w", key, err)
			}
			out.Set(key, coerced)
		}
	}

	return out, nil
}

// toPrimitive converts well-known rich kinds to storage primitives. Any
// composite left over becomes nil.
func toPrimitive(v any, layouts Layouts) (any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	switch t := v.(type) {
	case time.Time:
		return t.Format(layouts.DateTime), nil
	case *time.Time:
		return t.Format(layouts.DateTime), nil
	case json.Marshaler:
		data, err := t.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return string(data), nil
	case fmt.Stringer:
		return t.String(), nil
	}

	if IsComposite(v) {
		return nil, nil
	}
	return v, nil
}

// Coerce converts a primitive to the storage-native type of family.
func Coerce(v any, family schema.Family) (any, error) {
	switch family {
	case schema.FamilyInteger:
		return ToInt64(v)
	case schema.FamilyFloat:
		return ToFloat64(v)
	case schema.FamilyBoolean:
		return ToBool(v)
	case schema.FamilyBlob:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
		return ToString(v)
	default:
		return ToString(v)
	}
}
