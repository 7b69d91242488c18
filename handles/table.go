package handles

import (
	"errors"
	"reflect"
	"sync"
)

var ErrClosed = errors.New("handle table closed")

// Handle is an opaque reference to a host object shared with the script
// runtime. Handle 0 is reserved and always invalid.
type Handle uint32

// Side identifies which runtime holds a reference.
type Side uint8

const (
	SideScript Side = iota
	SideHost
)

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventExported EventType = iota
	EventReleased
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// Dropper is optionally implemented by values that need cleanup once both
// runtimes have released them.
type Dropper interface {
	Drop()
}

// Table is a cross-runtime reference-counted handle table. An entry stays
// alive as long as either the script side or the host side holds a live
// reference; it is dropped only when both counts reach zero.
//
// The same value exported twice yields the same handle, so handle equality
// is object identity.
type Table struct {
	entries   []entry
	freeList  []Handle
	index     map[any]Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value      any
	scriptRefs uint32
	hostRefs   uint32
	valid      bool
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
		index:    make(map[any]Handle),
	}
}

// Export makes value visible to the script side and returns its handle.
// The script reference count starts at (or is bumped by) one. Exporting a
// value that already has a handle returns the existing handle.
//
// Values must be comparable (in practice: pointers); non-comparable values
// are stored without identity dedup.
func (t *Table) Export(value any) (Handle, error) {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	comparable := value != nil && reflect.TypeOf(value).Comparable()
	if comparable {
		if h, ok := t.index[value]; ok {
			t.entries[h-1].scriptRefs++
			t.mu.Unlock()
			return h, nil
		}
	}

	e := entry{value: value, scriptRefs: 1, valid: true}

	var h Handle
	if len(t.freeList) > 0 {
		h = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}

	if comparable {
		t.index[value] = h
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventExported, Handle: h, Value: value})
	return h, nil
}

// Get retrieves a value by handle.
func (t *Table) Get(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}

	e := t.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Find returns the handle for a previously exported value.
func (t *Table) Find(value any) (Handle, bool) {
	if value == nil || !reflect.TypeOf(value).Comparable() {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	h, ok := t.index[value]
	return h, ok
}

// Retain increments the reference count held by side.
func (t *Table) Retain(h Handle, side Side) bool {
	if h == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		return false
	}

	e := &t.entries[idx]
	if !e.valid {
		return false
	}

	if side == SideScript {
		e.scriptRefs++
	} else {
		e.hostRefs++
	}
	return true
}

// Release decrements the reference count held by side. When both sides
// reach zero the entry is dropped: its Dropper (if any) runs and the
// handle becomes reusable. Returns true if the entry was dropped.
func (t *Table) Release(h Handle, side Side) bool {
	if h == 0 {
		return false
	}

	t.mu.Lock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		t.mu.Unlock()
		return false
	}

	e := &t.entries[idx]
	if !e.valid {
		t.mu.Unlock()
		return false
	}

	if side == SideScript && e.scriptRefs > 0 {
		e.scriptRefs--
	} else if side == SideHost && e.hostRefs > 0 {
		e.hostRefs--
	}

	if e.scriptRefs > 0 || e.hostRefs > 0 {
		t.mu.Unlock()
		return false
	}

	value := e.value
	e.valid = false
	e.value = nil
	t.freeList = append(t.freeList, h)
	if value != nil && reflect.TypeOf(value).Comparable() {
		delete(t.index, value)
	}
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{Type: EventReleased, Handle: h, Value: value})
	return true
}

// Refs returns the current (script, host) reference counts.
func (t *Table) Refs(h Handle) (script, host uint32, ok bool) {
	if h == 0 {
		return 0, 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := h - 1
	if int(idx) >= len(t.entries) {
		return 0, 0, false
	}

	e := t.entries[idx]
	if !e.valid {
		return 0, 0, false
	}
	return e.scriptRefs, e.hostRefs, true
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops all entries and stops accepting operations.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for i := range t.entries {
		if t.entries[i].valid {
			if d, ok := t.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			t.entries[i].valid = false
			t.entries[i].value = nil
		}
	}

	t.entries = nil
	t.freeList = nil
	t.index = nil
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
