package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/nysql/internal/ir"
)

func TestStreamDispatchesToRegisteredGate(t *testing.T) {
	s := NewStream()
	var seen Event
	gate := NewPureGate("ping", func(e Event) []Event {
		seen = e
		return nil
	})
	require := assert.New(t)
	require.NoError(s.Register(gate))

	s.Emit(New("ping", map[string]ir.Value{"n": ir.Int(1)}))

	assert.Equal(t, "ping", seen.Type)
}

func TestStreamUnclaimedEventGoesToPending(t *testing.T) {
	s := NewStream()
	s.Emit(New("unclaimed", nil))

	pending := s.Pending()
	assert.Len(t, pending, 1)
	assert.Equal(t, "unclaimed", pending[0].Type)
}

func TestStreamDepthFirstRecursion(t *testing.T) {
	s := NewStream()
	var order []string

	a := NewPureGate("a", func(e Event) []Event {
		order = append(order, "a")
		return []Event{New("b", nil), New("c", nil)}
	})
	b := NewPureGate("b", func(e Event) []Event {
		order = append(order, "b")
		return []Event{New("d", nil)}
	})
	c := NewPureGate("c", func(e Event) []Event {
		order = append(order, "c")
		return nil
	})
	d := NewPureGate("d", func(e Event) []Event {
		order = append(order, "d")
		return nil
	})

	for _, g := range []Gate{a, b, c, d} {
		assert.NoError(t, s.Register(g))
	}

	s.Emit(New("a", nil))

	// a emits b then c; b is fully drained (emitting d) before c runs,
	// because emit recurses depth-first on a's first output.
	assert.Equal(t, []string{"a", "b", "d", "c"}, order)
}

func TestStreamRegisterSignatureCollision(t *testing.T) {
	s := NewStream()
	g1 := NewPureGate("dup", func(e Event) []Event { return nil })
	g2 := NewPureGate("dup", func(e Event) []Event { return nil })

	assert.NoError(t, s.Register(g1))
	err := s.Register(g2)
	assert.Error(t, err)
	var collision SignatureCollision
	assert.ErrorAs(t, err, &collision)
	assert.Equal(t, "dup", collision.Signature)
}

func TestStreamRecorderObservesEveryEmission(t *testing.T) {
	s := NewStream()
	var recorded []string
	s.SetRecorder(RecorderFunc(func(e Event) {
		recorded = append(recorded, e.Type)
	}))

	gate := NewPureGate("start", func(e Event) []Event {
		return []Event{New("followup", nil)}
	})
	assert.NoError(t, s.Register(gate))

	s.Emit(New("start", nil))

	assert.Equal(t, []string{"start", "followup"}, recorded)
}

func TestStreamClearPending(t *testing.T) {
	s := NewStream()
	s.Emit(New("a", nil))
	s.Emit(New("b", nil))

	cleared := s.ClearPending()
	assert.Len(t, cleared, 2)
	assert.Empty(t, s.Pending())
}

func TestEventGetAndMustGet(t *testing.T) {
	e := New("x", map[string]ir.Value{"k": ir.Text("v")})

	v, ok := e.Get("k")
	assert.True(t, ok)
	assert.Equal(t, ir.Text("v"), v)

	_, ok = e.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, ir.Null{}, e.MustGet("missing"))
}
