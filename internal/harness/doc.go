// Package harness runs mapper scenarios described in YAML.
//
// A scenario creates tables in a fresh in-memory SQLite database, builds the
// named mappers, seeds rows, then runs a flow of mapper operations and
// checks their outcomes. Every hook event fired during the flow is recorded
// into a trace, which assertions inspect and golden files pin down.
//
// # Scenario Format
//
//	name: sync_by_category
//	description: "sync replaces the rows of one category"
//	schema:
//	  - CREATE TABLE t (id INTEGER PRIMARY KEY, cat TEXT)
//	mappers:
//	  t: {table: t}
//	setup:
//	  - mapper: t
//	    rows: [{id: 1, cat: a}, {id: 3, cat: a}]
//	flow:
//	  - op: sync
//	    mapper: t
//	    data: [{id: 1, cat: a}, {id: 2, cat: a}]
//	    where: {cat: a}
//	    compare: [id]
//	    expect: {kept: 1, added: 1, deleted: 1}
//	assertions:
//	  - type: final_state
//	    mapper: t
//	    where: {cat: a}
//	    count: 2
//	  - type: event_order
//	    events: [before.sync, before.delete, before.create, after.sync]
//
// # Operations
//
// find, count, create, update, update_batch, delete, flush and sync map to
// the mapper methods of the same name. where is an equality map; data is a
// row or a list of rows.
//
// # Assertion Types
//
//   - final_state: rows matching where, checked by count and/or a row subset
//   - event_order: event names appear in the trace in this order
//   - event_count: an event name appears exactly count times
//
// # Deterministic Traces
//
// Event correlation IDs come from a testutil.IDSequence restarted after
// setup, so the same scenario always yields the same trace.
package harness
