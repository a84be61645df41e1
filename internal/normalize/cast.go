package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/rowmap/internal/record"
)

// ForStore applies the record's declared casts in place. It runs before
// Normalize and looks only at cast tags, never at the schema. Nil values and
// records without casts are left alone.
func ForStore(rec *record.Record, layouts Layouts) error {
	if !rec.HasCasts() {
		return nil
	}

	for _, key := range rec.Keys() {
		c, ok := rec.Cast(key)
		if !ok {
			continue
		}
		value := rec.Value(key)
		if value == nil {
			continue
		}

		cast, err := castValue(rec, c, value, layouts)
		if err != nil {
			return fmt.Errorf("cast %s to %s: %w", key, c, err)
		}
		rec.Set(key, cast)
	}
	return nil
}

func castValue(rec *record.Record, c record.Cast, v any, layouts Layouts) (any, error) {
	switch c {
	case record.CastInteger:
		return ToInt64(v)
	case record.CastFloat:
		return ToFloat64(v)
	case record.CastString:
		return ToString(v)
	case record.CastBoolean:
		return ToBool(v)
	case record.CastObject, record.CastArray:
		if !IsComposite(v) {
			return v, nil
		}
		return encodeJSON(v)
	case record.CastJSON:
		if s, ok := v.(string); ok && json.Valid([]byte(s)) {
			return s, nil
		}
		return encodeJSON(v)
	case record.CastDate:
		t, err := rec.ParseTime(v)
		if err != nil {
			return nil, err
		}
		return t.Format(layouts.Date), nil
	case record.CastDateTime:
		t, err := rec.ParseTime(v)
		if err != nil {
			return nil, err
		}
		return t.Format(layouts.DateTime), nil
	case record.CastTimestamp:
		t, err := rec.ParseTime(v)
		if err != nil {
			return nil, err
		}
		return t.Unix(), nil
	default:
		return nil, fmt.Errorf("unknown cast %q", c)
	}
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}
