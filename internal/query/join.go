package query

// JoinType selects the JOIN flavour.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
)

// Join is one entry of the join registry. The first entry of a registry is
// the FROM table; its On is ignored.
type Join struct {
	Alias string
	Table string
	On    string
	Type  JoinType

	// Prefix is prepended to this table's column names in the projection
	// ("p.name AS p__name"). An empty prefix selects columns unaliased.
	Prefix string

	// Columns are the table's column names, used to build the projection.
	Columns []string
}

// Registry is the ordered set of joined tables. More than one entry makes a
// query "joined".
type Registry struct {
	entries []Join
}

// Add registers a join. An entry with the same alias is replaced in place.
func (r *Registry) Add(j Join) {
	if j.Type == "" {
		j.Type = InnerJoin
	}
	for i, e := range r.entries {
		if e.Alias == j.Alias {
			r.entries[i] = j
			return
		}
	}
	r.entries = append(r.entries, j)
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Joined reports whether more than one table is registered.
func (r *Registry) Joined() bool {
	return len(r.entries) > 1
}

// Has reports whether alias is registered.
func (r *Registry) Has(alias string) bool {
	for _, e := range r.entries {
		if e.Alias == alias {
			return true
		}
	}
	return false
}

// Entries returns a copy of the registry in registration order.
func (r *Registry) Entries() []Join {
	out := make([]Join, len(r.entries))
	copy(out, r.entries)
	return out
}

// Projection returns the qualified column list for all registered tables so
// that joined reads never collide on column names.
func (r *Registry) Projection() []string {
	var out []string
	for _, e := range r.entries {
		for _, col := range e.Columns {
			qualified := e.Alias + "." + col
			if e.Prefix != "" {
				qualified += " AS " + e.Prefix + col
			}
			out = append(out, qualified)
		}
	}
	return out
}

// Reset clears the registry.
func (r *Registry) Reset() {
	r.entries = nil
}
