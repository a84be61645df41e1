// Package record holds the row containers used by the mapper.
//
// A Record keeps column insertion order (so that generated INSERT and UPDATE
// statements are stable) and optional per-field Cast tags. Casts only matter
// on write; see package normalize.
package record
