// Package testutil holds deterministic helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync"
)

// IDSequence hands out hook correlation IDs "<prefix>-1", "<prefix>-2", ...
// so event logs compare byte-for-byte across runs.
//
// Safe for concurrent use.
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewIDSequence creates a sequence. An empty prefix becomes "op".
func NewIDSequence(prefix string) *IDSequence {
	if prefix == "" {
		prefix = "op"
	}
	return &IDSequence{prefix: prefix}
}

// Next returns the next ID. Its signature matches hook.IDGenerator.
func (s *IDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

// Issued returns how many IDs have been handed out.
func (s *IDSequence) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset restarts the sequence at 1.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}

// FixedID returns a generator that always yields id.
func FixedID(id string) func() string {
	return func() string { return id }
}
