package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// ConstraintCreateGate implements constraint_create_execute. Enforcement
// of the constraint's body is out of scope (see DESIGN.md); only its
// name and table are tracked, enough to support a later DROP.
type ConstraintCreateGate struct{}

func (ConstraintCreateGate) Signature() string { return "constraint_create_execute" }

func (ConstraintCreateGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(constraintKey(table, name))
}

func (ConstraintCreateGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	body, _ := asString(e.MustGet("body"))

	if _, ok := resolved.Ref(schemaKey(table)); !ok {
		return nil, TableNotFoundError{Table: table}
	}

	batch := state.NewMutationBatch()
	idx := batch.Put("constraint", ir.Object{"table": ir.Text(table), "name": ir.Text(name), "body": ir.Text(body)})
	batch.SetFromPut(constraintKey(table, name), idx)
	batch.Emit(event.New("constraint_created", map[string]ir.Value{"table": ir.Text(table), "name": ir.Text(name)}))
	return batch, nil
}

// ConstraintDropGate implements constraint_drop_execute.
type ConstraintDropGate struct{}

func (ConstraintDropGate) Signature() string { return "constraint_drop_execute" }

func (ConstraintDropGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(constraintKey(table, name))
}

func (ConstraintDropGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))

	if _, ok := resolved.Ref(constraintKey(table, name)); !ok {
		return nil, TableNotFoundError{Table: name}
	}

	batch := state.NewMutationBatch()
	batch.Delete(constraintKey(table, name))
	batch.Emit(event.New("constraint_dropped", map[string]ir.Value{"table": ir.Text(table), "name": ir.Text(name)}))
	return batch, nil
}
