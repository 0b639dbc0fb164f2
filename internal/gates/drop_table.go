package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// DropTableGate implements drop_table_execute: schema, next_id, every
// row, and every index's state are deleted together.
type DropTableGate struct{}

func (DropTableGate) Signature() string { return "drop_table_execute" }

func (DropTableGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(nextIDKey(table)).
		WithRef(indexNamesKey(table)).
		WithPattern(rowsPrefix(table)).
		WithPattern(indexesPrefix(table)).
		WithPattern(constraintsPrefix(table))
}

func (DropTableGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	ifExists := boolOf(e.MustGet("ifExists"))

	if _, ok := resolved.Ref(schemaKey(table)); !ok {
		if ifExists {
			return state.NewMutationBatch(), nil
		}
		return nil, TableNotFoundError{Table: table}
	}

	batch := state.NewMutationBatch()
	batch.Delete(schemaKey(table))
	batch.Delete(nextIDKey(table))
	batch.Delete(indexNamesKey(table))

	if namesVal, ok := resolved.Ref(indexNamesKey(table)); ok {
		if names, ok := namesVal.(ir.Array); ok {
			for _, n := range names {
				if name, ok := n.(ir.Text); ok {
					batch.Delete(globalIndexKey(string(name)))
				}
			}
		}
	}

	for _, entry := range resolved.Pattern(rowsPrefix(table)) {
		batch.Delete(entry.Name)
	}
	for _, entry := range resolved.Pattern(indexesPrefix(table)) {
		batch.Delete(entry.Name)
	}
	for _, entry := range resolved.Pattern(constraintsPrefix(table)) {
		batch.Delete(entry.Name)
	}

	batch.Emit(event.New("table_dropped", map[string]ir.Value{"table": ir.Text(table)}))
	return batch, nil
}
