// Package query is the structured read-query layer of the mapper.
//
// It defines the condition variant (Equals, Comparison, Raw), ordering, the
// join registry and the Select query object, and compiles them to
// parameterized SQLite SQL.
//
// # Critical Patterns
//
// Parameterization: values are never interpolated into SQL text; every value
// becomes a ? placeholder. Raw expressions and join ON clauses are the only
// caller-supplied SQL and are passed through verbatim.
//
// Stable ordering: conditions and ORDER BY entries are emitted in the order
// the caller gave them. No implicit secondary sort is added.
package query
