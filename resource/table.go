package resource

import (
	"sync"
)

// Handle identifies a value in a Table.
type Handle uint32

// EventType is the kind of lifecycle event.
type EventType int

const (
	EventCreated EventType = iota
	EventDropped
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event describes a handle lifecycle change.
type Event struct {
	Type   EventType
	Handle Handle
	Len    int
}

// Observer receives lifecycle events. Observers are called synchronously
// and must not call back into the table.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is implemented by values that release something when removed.
type Dropper interface {
	Drop()
}

// Table is a concurrency-safe handle table.
type Table[T any] struct {
	values    map[Handle]T
	observers []Observer
	next      Handle
	closed    bool
	mu        sync.RWMutex
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		values: make(map[Handle]T),
		next:   1,
	}
}

// Insert adds a value and returns its handle, or 0 once the table is
// closed or the handle space is exhausted.
func (t *Table[T]) Insert(value T) Handle {
	t.mu.Lock()
	if t.closed || t.next == 0 {
		t.mu.Unlock()
		return 0
	}
	h := t.next
	t.next++
	t.values[h] = value
	n := len(t.values)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Len: n})
	return h
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[h]
	return v, ok
}

// Remove drops a value and returns it. Values implementing Dropper are
// dropped.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.values[h]
	if !ok {
		t.mu.Unlock()
		var zero T
		return zero, false
	}
	delete(t.values, h)
	n := len(t.values)
	t.mu.Unlock()

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Len: n})
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Each calls fn for every live handle until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.RLock()
	snapshot := make(map[Handle]T, len(t.values))
	for h, v := range t.values {
		snapshot[h] = v
	}
	t.mu.RUnlock()

	for h, v := range snapshot {
		if !fn(h, v) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Close removes every value and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	t.closed = true
	var handles []Handle
	for h := range t.values {
		handles = append(handles, h)
	}
	t.mu.Unlock()

	for _, h := range handles {
		t.Remove(h)
	}
	return nil
}

func (t *Table[T]) notify(e Event) {
	t.mu.RLock()
	observers := t.observers
	t.mu.RUnlock()
	for _, o := range observers {
		o.OnResourceEvent(e)
	}
}
