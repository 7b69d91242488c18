package dispatch

import "sync"

// ThrownSlot retains the most recently captured host throwable. It is a
// single slot with last-write-wins semantics, bridge-wide rather than
// per-context: each failing host call overwrites it, so callers must read
// it before issuing another host call. It is explicit state, injectable
// for testing, rather than an implicit global.
type ThrownSlot struct {
	mu  sync.Mutex
	val any
	set bool
}

// NewThrownSlot creates an empty slot.
func NewThrownSlot() *ThrownSlot {
	return &ThrownSlot{}
}

// Record overwrites the slot with a newly captured throwable.
func (s *ThrownSlot) Record(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = v
	s.set = true
}

// Latest returns the most recently captured throwable, if any.
func (s *ThrownSlot) Latest() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val, s.set
}

// Clear empties the slot.
func (s *ThrownSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = nil
	s.set = false
}
