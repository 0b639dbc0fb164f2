package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// ViewCreateGate implements view_create_execute: a view is stored as its
// captured SELECT text under viewKey. Queries do not expand views: a view
// name in FROM is planned as a plain table scan of that name.
type ViewCreateGate struct{}

func (ViewCreateGate) Signature() string { return "view_create_execute" }

func (ViewCreateGate) ReadSet(e event.Event) *state.ReadSet {
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(viewKey(name))
}

func (ViewCreateGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name, _ := asString(e.MustGet("name"))
	selectTokens, _ := asString(e.MustGet("selectTokens"))

	batch := state.NewMutationBatch()
	idx := batch.Put("view", ir.Object{"name": ir.Text(name), "selectTokens": ir.Text(selectTokens)})
	batch.SetFromPut(viewKey(name), idx)
	batch.Emit(event.New("view_created", map[string]ir.Value{"name": ir.Text(name)}))
	return batch, nil
}

// ViewDropGate implements view_drop_execute.
type ViewDropGate struct{}

func (ViewDropGate) Signature() string { return "view_drop_execute" }

func (ViewDropGate) ReadSet(e event.Event) *state.ReadSet {
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(viewKey(name))
}

func (ViewDropGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name, _ := asString(e.MustGet("name"))
	ifExists := boolOf(e.MustGet("ifExists"))

	if _, ok := resolved.Ref(viewKey(name)); !ok {
		if ifExists {
			return state.NewMutationBatch(), nil
		}
		return nil, TableNotFoundError{Table: name}
	}

	batch := state.NewMutationBatch()
	batch.Delete(viewKey(name))
	batch.Emit(event.New("view_dropped", map[string]ir.Value{"name": ir.Text(name)}))
	return batch, nil
}
