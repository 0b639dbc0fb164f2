package event

import (
	"fmt"
	"sync"
)

// SignatureCollision is returned by Register when two gates claim the same
// event type.
type SignatureCollision struct {
	Signature string
}

func (e SignatureCollision) Error() string {
	return fmt.Sprintf("event: gate already registered for signature %q", e.Signature)
}

// Recorder observes every event emitted on a Stream, for introspection or
// tracing. Implementations must not mutate the event.
type Recorder interface {
	Record(e Event)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(Event)

// Record implements Recorder.
func (f RecorderFunc) Record(e Event) { f.Call(e) }

// Call invokes the underlying function directly.
func (f RecorderFunc) Call(e Event) { f(e) }

// Stream holds a mapping from event type to gate, plus a pending list of
// events that no gate claimed. emit dispatches depth-first, single
// threaded: a gate's output events are themselves emitted (and may
// recurse) before emit returns.
type Stream struct {
	mu       sync.Mutex
	gates    map[string]Gate
	pending  []Event
	recorder Recorder
}

// NewStream creates an empty Stream.
func NewStream() *Stream {
	return &Stream{gates: make(map[string]Gate)}
}

// SetRecorder installs r to observe every emission. Pass nil to disable.
func (s *Stream) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Register claims eventType for gate. Registering a second gate for the
// same signature is a fatal error.
func (s *Stream) Register(gate Gate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := gate.Signature()
	if _, exists := s.gates[sig]; exists {
		return SignatureCollision{Signature: sig}
	}
	s.gates[sig] = gate
	return nil
}

// Emit dispatches e: if a gate claims e.Type, the gate's output events are
// each emitted in turn (depth-first recursion); otherwise e is appended to
// the pending list. Emit is not safe to call concurrently with itself —
// the stream is a single-threaded dispatch loop, per spec.md §4.4.
func (s *Stream) Emit(e Event) {
	s.mu.Lock()
	if s.recorder != nil {
		s.recorder.Record(e)
	}
	gate, ok := s.gates[e.Type]
	s.mu.Unlock()

	if !ok {
		s.mu.Lock()
		s.pending = append(s.pending, e)
		s.mu.Unlock()
		return
	}

	for _, out := range gate.Handle(e) {
		s.Emit(out)
	}
}

// Pending returns a copy of the events that no gate claimed.
func (s *Stream) Pending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.pending))
	copy(out, s.pending)
	return out
}

// ClearPending empties the pending list and returns what was cleared.
func (s *Stream) ClearPending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// Gate returns the gate registered for signature, if any.
func (s *Stream) Gate(signature string) (Gate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[signature]
	return g, ok
}
