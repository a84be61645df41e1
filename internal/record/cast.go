package record

import (
	"fmt"
	"maps"
	"slices"
)

// Cast names the storage representation a field is converted to before write.
type Cast string

const (
	CastInteger   Cast = "integer"
	CastFloat     Cast = "float"
	CastBoolean   Cast = "boolean"
	CastString    Cast = "string"
	CastObject    Cast = "object"
	CastArray     Cast = "array"
	CastJSON      Cast = "json"
	CastDate      Cast = "date"
	CastDateTime  Cast = "datetime"
	CastTimestamp Cast = "timestamp"
)

var knownCasts = []Cast{
	CastInteger, CastFloat, CastBoolean, CastString, CastObject,
	CastArray, CastJSON, CastDate, CastDateTime, CastTimestamp,
}

// ParseCast validates a cast name. The short aliases int, bool and str are
// accepted.
func ParseCast(name string) (Cast, error) {
	switch name {
	case "int":
		return CastInteger, nil
	case "bool":
		return CastBoolean, nil
	case "str":
		return CastString, nil
	}
	c := Cast(name)
	if !slices.Contains(knownCasts, c) {
		return "", fmt.Errorf("unknown cast %q", name)
	}
	return c, nil
}

// WithCast declares a cast for a field.
func (r *Record) WithCast(field string, c Cast) *Record {
	if r.casts == nil {
		r.casts = make(map[string]Cast)
	}
	r.casts[field] = c
	return r
}

// WithCasts declares casts for several fields.
func (r *Record) WithCasts(casts map[string]Cast) *Record {
	for f, c := range casts {
		r.WithCast(f, c)
	}
	return r
}

// Cast returns the declared cast for field.
func (r *Record) Cast(field string) (Cast, bool) {
	c, ok := r.casts[field]
	return c, ok
}

// Casts returns a copy of all declared casts.
func (r *Record) Casts() map[string]Cast {
	return maps.Clone(r.casts)
}

// HasCasts reports whether any cast is declared.
func (r *Record) HasCasts() bool {
	return len(r.casts) > 0
}
