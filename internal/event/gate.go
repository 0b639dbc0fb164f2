package event

// Gate is the common signature shared by the three gate variants described
// in spec.md §4.4 (pure, state, plain). Signature identifies the single
// event type the gate claims; Handle consumes a matching event and
// produces zero, one, or many follow-up events.
//
// State and plain gates need access to persistence or the stream itself;
// that access is injected at construction time by internal/state and
// internal/runner respectively, so this package stays ignorant of
// ReadSets, MutationBatches, and the Runner.
type Gate interface {
	Signature() string
	Handle(e Event) []Event
}

// PureFunc transforms an event into follow-up events with no state access
// and no side effects.
type PureFunc func(Event) []Event

type pureGate struct {
	signature string
	fn        PureFunc
}

// NewPureGate wraps fn as a Gate claiming the given event type.
func NewPureGate(signature string, fn PureFunc) Gate {
	return pureGate{signature: signature, fn: fn}
}

func (g pureGate) Signature() string { return g.signature }

func (g pureGate) Handle(e Event) []Event { return g.fn(e) }
