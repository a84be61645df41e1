package record

// Set is an ordered dataset of records.
type Set []*Record

// Len returns the number of records.
func (s Set) Len() int { return len(s) }

// At returns the i-th record.
func (s Set) At(i int) *Record { return s[i] }

// Column returns the values of one column across the set, nil where absent.
func (s Set) Column(name string) []any {
	out := make([]any, len(s))
	for i, r := range s {
		out[i] = r.Value(name)
	}
	return out
}

// Maps returns every record as a plain map.
func (s Set) Maps() []map[string]any {
	out := make([]map[string]any, len(s))
	for i, r := range s {
		out[i] = r.Map()
	}
	return out
}

// First returns the first record, or nil for an empty set.
func (s Set) First() *Record {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}
