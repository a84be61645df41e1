package record

import (
	"fmt"
	"slices"
	"sort"
)

// Record is one row's data: an ordered column → value mapping plus optional
// per-field cast tags that are consulted only on write.
//
// The zero value is not usable; construct with New, FromMap or FromPairs.
type Record struct {
	keys   []string
	values map[string]any
	casts  map[string]Cast
	parse  TimeParser
}

// Factory builds a Record from raw column values.
// Mappers use a Factory to materialize query results and bind caller input.
type Factory func(values map[string]any) *Record

// New creates an empty record.
func New() *Record {
	return &Record{values: make(map[string]any)}
}

// FromMap creates a record from a map. Keys are sorted by name because Go maps
// carry no order.
func FromMap(m map[string]any) *Record {
	r := &Record{
		keys:   make([]string, 0, len(m)),
		values: make(map[string]any, len(m)),
	}
	for k, v := range m {
		r.keys = append(r.keys, k)
		r.values[k] = v
	}
	sort.Strings(r.keys)
	return r
}

// FromPairs creates a record from alternating key/value arguments, keeping
// the given order. Panics on an odd argument count or a non-string key; use
// only with literal arguments.
//
//	r := record.FromPairs("id", 1, "name", "widget")
func FromPairs(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("record.FromPairs: odd number of arguments")
	}
	r := New()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("record.FromPairs: key %d is %T, not string", i/2, kv[i]))
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// Get returns the value for key and whether the key is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or nil when absent.
func (r *Record) Value(key string) any {
	return r.values[key]
}

// Has reports whether key is present (a present key may hold nil).
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores a value. Setting an existing key keeps its position.
func (r *Record) Set(key string, value any) *Record {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Delete removes key if present.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Keys returns the column names in record order.
func (r *Record) Keys() []string {
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Each calls fn for every field in order.
func (r *Record) Each(fn func(key string, value any)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// Map returns a shallow copy of the values as a plain map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Clone returns a shallow copy, including casts and time parser.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   slices.Clone(r.keys),
		values: r.Map(),
		parse:  r.parse,
	}
	if r.casts != nil {
		c.casts = make(map[string]Cast, len(r.casts))
		for k, v := range r.casts {
			c.casts[k] = v
		}
	}
	return c
}

// Only returns a copy restricted to the given columns, in record order.
// Fields not listed are dropped silently.
func (r *Record) Only(columns ...string) *Record {
	c := r.Clone()
	c.keys = c.keys[:0]
	c.values = make(map[string]any, len(columns))
	for _, k := range r.keys {
		if slices.Contains(columns, k) {
			c.keys = append(c.keys, k)
			c.values[k] = r.values[k]
		}
	}
	return c
}

// Project returns the sub-record for keys in the given order. Keys missing
// from r are present in the projection with a nil value.
func (r *Record) Project(keys ...string) *Record {
	p := New()
	for _, k := range keys {
		p.Set(k, r.values[k])
	}
	return p
}

// Assign copies every field of other into r.
func (r *Record) Assign(other *Record) {
	other.Each(func(k string, v any) { r.Set(k, v) })
}

// String renders the record for logs.
func (r *Record) String() string {
	s := "{"
	for i, k := range r.keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%v", k, r.values[k])
	}
	return s + "}"
}
