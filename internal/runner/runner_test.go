package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/objstore"
	"github.com/roach88/nysql/internal/refstore"
	"github.com/roach88/nysql/internal/state"
)

func newTestRunner() *Runner {
	return New(objstore.NewMemStore(), refstore.NewMemRefs())
}

type createGate struct{}

func (createGate) Signature() string { return "create_thing" }

func (createGate) ReadSet(e event.Event) *state.ReadSet {
	return state.NewReadSet().WithRef("things/" + textArg(e, "name"))
}

func (createGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name := textArg(e, "name")
	b := state.NewMutationBatch()
	idx := b.Put("thing", ir.Object{"name": ir.Text(name)})
	b.SetFromPut("things/"+name, idx)
	b.Emit(event.New("thing_created", map[string]ir.Value{"name": ir.Text(name)}))
	return b, nil
}

func textArg(e event.Event, key string) string {
	v, ok := e.Get(key)
	if !ok {
		return ""
	}
	t, ok := v.(ir.Text)
	if !ok {
		return ""
	}
	return string(t)
}

func TestRunnerRegisterAndResolveStateGate(t *testing.T) {
	r := newTestRunner()
	require.NoError(t, r.Register(createGate{}))

	var created []string
	r.Stream().SetRecorder(event.RecorderFunc(func(e event.Event) {
		if e.Type == "thing_created" {
			created = append(created, textArg(e, "name"))
		}
	}))

	r.Emit(event.New("create_thing", map[string]ir.Value{"name": ir.Text("widget")}))

	assert.Equal(t, []string{"widget"}, created)

	resolved, err := r.Resolve(state.NewReadSet().WithRef("things/widget"))
	require.NoError(t, err)
	v, ok := resolved.Ref("things/widget")
	assert.True(t, ok)
	assert.True(t, ir.Equal(ir.Object{"name": ir.Text("widget")}, v))
}

func TestRunnerResolveAbsentRef(t *testing.T) {
	r := newTestRunner()
	resolved, err := r.Resolve(state.NewReadSet().WithRef("nope"))
	require.NoError(t, err)
	_, ok := resolved.Ref("nope")
	assert.False(t, ok)
}

func TestRunnerApplyPutIndexOutOfRangeErrors(t *testing.T) {
	r := newTestRunner()
	b := state.NewMutationBatch()
	b.SetFromPut("x", 0)
	_, err := r.Apply(b)
	assert.Error(t, err)
}

func TestRunnerApplyOrdersPutsBeforeRefs(t *testing.T) {
	r := newTestRunner()
	b := state.NewMutationBatch()
	idx := b.Put("row", ir.Int(42))
	b.SetFromPut("a/1", idx)

	followUps, err := r.Apply(b)
	require.NoError(t, err)
	assert.Empty(t, followUps)

	resolved, err := r.Resolve(state.NewReadSet().WithRef("a/1"))
	require.NoError(t, err)
	v, ok := resolved.Ref("a/1")
	require.True(t, ok)
	assert.Equal(t, ir.Int(42), v)
}

func TestRunnerResolvePatternOrdered(t *testing.T) {
	r := newTestRunner()
	b := state.NewMutationBatch()
	i1 := b.Put("row", ir.Int(1))
	i2 := b.Put("row", ir.Int(2))
	b.SetFromPut("rows/2", i2)
	b.SetFromPut("rows/1", i1)
	_, err := r.Apply(b)
	require.NoError(t, err)

	resolved, err := r.Resolve(state.NewReadSet().WithPattern("rows/"))
	require.NoError(t, err)
	entries := resolved.Pattern("rows/")
	require.Len(t, entries, 2)
	assert.Equal(t, "rows/1", entries[0].Name)
	assert.Equal(t, "rows/2", entries[1].Name)
}

func TestRunnerSnapshotRestore(t *testing.T) {
	r := newTestRunner()
	b := state.NewMutationBatch()
	idx := b.Put("row", ir.Int(1))
	b.SetFromPut("a", idx)
	_, err := r.Apply(b)
	require.NoError(t, err)

	snap, err := r.Snapshot()
	require.NoError(t, err)

	b2 := state.NewMutationBatch()
	idx2 := b2.Put("row", ir.Int(2))
	b2.SetFromPut("b", idx2)
	_, err = r.Apply(b2)
	require.NoError(t, err)

	require.NoError(t, r.Restore(snap))

	resolved, err := r.Resolve(state.NewReadSet().WithRef("a").WithRef("b"))
	require.NoError(t, err)
	_, aOK := resolved.Ref("a")
	_, bOK := resolved.Ref("b")
	assert.True(t, aOK)
	assert.False(t, bOK)
}

func TestRunnerRegisterDuplicateSignatureFails(t *testing.T) {
	r := newTestRunner()
	require.NoError(t, r.Register(createGate{}))
	err := r.Register(createGate{})
	assert.Error(t, err)
}

type panicGate struct{}

func (panicGate) Signature() string { return "boom" }
func (panicGate) Handle(e event.Event) []event.Event {
	panic("kaboom")
}

func TestRunnerRecoversPanicAsErrorEvent(t *testing.T) {
	r := newTestRunner()
	require.NoError(t, r.Register(panicGate{}))

	var errs []event.Event
	r.Stream().SetRecorder(event.RecorderFunc(func(e event.Event) {
		if e.Type == "error" {
			errs = append(errs, e)
		}
	}))

	r.Emit(event.New("boom", nil))
	require.Len(t, errs, 1)
}

func TestRunnerClearPending(t *testing.T) {
	r := newTestRunner()
	r.Emit(event.New("unclaimed", nil))
	cleared := r.ClearPending()
	assert.Len(t, cleared, 1)
}
