// Package event implements the event/gate/stream dataflow described in
// spec.md §4.4: typed events flow through a Stream to Gates registered by
// event type, dispatched depth-first on a single thread.
package event

import "github.com/roach88/nysql/internal/ir"

// Event is a pair of (type, data). Events are ephemeral: they flow through
// the Stream and are either consumed by a gate or land in the pending list.
type Event struct {
	Type string
	Data map[string]ir.Value
}

// New constructs an Event. data may be nil, meaning an empty payload.
func New(eventType string, data map[string]ir.Value) Event {
	if data == nil {
		data = map[string]ir.Value{}
	}
	return Event{Type: eventType, Data: data}
}

// Get returns the value at key and whether it was present.
func (e Event) Get(key string) (ir.Value, bool) {
	v, ok := e.Data[key]
	return v, ok
}

// MustGet returns the value at key, or ir.Null{} if absent.
func (e Event) MustGet(key string) ir.Value {
	if v, ok := e.Data[key]; ok {
		return v
	}
	return ir.Null{}
}

// Error builds a well-known "error" event carrying a message and the
// originating event's type, per spec.md's "errors as data" discipline.
func Error(message string, cause Event) Event {
	return New("error", map[string]ir.Value{
		"message": ir.Text(message),
		"cause":   ir.Text(cause.Type),
	})
}
