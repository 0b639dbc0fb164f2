package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// TriggerCreateGate implements trigger_create_execute. The trigger body
// is stored as captured text; firing it on the matching table event is
// outside this engine's scope (see DESIGN.md).
type TriggerCreateGate struct{}

func (TriggerCreateGate) Signature() string { return "trigger_create_execute" }

func (TriggerCreateGate) ReadSet(e event.Event) *state.ReadSet {
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(triggerKey(name))
}

func (TriggerCreateGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name, _ := asString(e.MustGet("name"))
	timing, _ := asString(e.MustGet("timing"))
	triggerEvent, _ := asString(e.MustGet("event"))
	table, _ := asString(e.MustGet("table"))
	body, _ := asString(e.MustGet("body"))

	batch := state.NewMutationBatch()
	idx := batch.Put("trigger", ir.Object{
		"name":   ir.Text(name),
		"timing": ir.Text(timing),
		"event":  ir.Text(triggerEvent),
		"table":  ir.Text(table),
		"body":   ir.Text(body),
	})
	batch.SetFromPut(triggerKey(name), idx)
	batch.Emit(event.New("trigger_created", map[string]ir.Value{"name": ir.Text(name)}))
	return batch, nil
}

// TriggerDropGate implements trigger_drop_execute.
type TriggerDropGate struct{}

func (TriggerDropGate) Signature() string { return "trigger_drop_execute" }

func (TriggerDropGate) ReadSet(e event.Event) *state.ReadSet {
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(triggerKey(name))
}

func (TriggerDropGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name, _ := asString(e.MustGet("name"))
	ifExists := boolOf(e.MustGet("ifExists"))

	if _, ok := resolved.Ref(triggerKey(name)); !ok {
		if ifExists {
			return state.NewMutationBatch(), nil
		}
		return nil, TableNotFoundError{Table: name}
	}

	batch := state.NewMutationBatch()
	batch.Delete(triggerKey(name))
	batch.Emit(event.New("trigger_dropped", map[string]ir.Value{"name": ir.Text(name)}))
	return batch, nil
}
