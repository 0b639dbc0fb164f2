package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// DeleteGate implements delete_execute, and also serves TRUNCATE (which
// the parser reduces to a delete_execute with no where clause).
type DeleteGate struct{}

func (DeleteGate) Signature() string { return "delete_execute" }

func (DeleteGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(indexNamesKey(table)).
		WithPattern(rowsPrefix(table)).
		WithPattern(indexesPrefix(table))
}

func (DeleteGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	if _, ok := resolved.Ref(schemaKey(table)); !ok {
		return nil, TableNotFoundError{Table: table}
	}

	where, hasWhere := e.Get("where")
	returning := e.MustGet("returning")
	if _, isNull := returning.(ir.Null); isNull {
		returning = nil
	}

	existing := rowsFromPattern(resolved.Pattern(rowsPrefix(table)))
	batch := state.NewMutationBatch()

	var deletedIDs []string
	var returnedRows ir.Array
	remaining := map[string]ir.Object{}

	for id, row := range existing {
		del := true
		if hasWhere {
			v, err := expr.Eval(where, rowToExprRow(row))
			if err != nil {
				return nil, err
			}
			del = isTruthy(v)
		}
		if del {
			deletedIDs = append(deletedIDs, id)
			batch.Delete(rowKey(table, mustInt64(id)))
			if returning != nil {
				returnedRows = append(returnedRows, projectReturning(returning, row))
			}
		} else {
			remaining[id] = row
		}
	}

	if err := rebuildIndexes(batch, resolved, table, remaining); err != nil {
		return nil, err
	}

	idArr := make(ir.Array, len(deletedIDs))
	for i, id := range deletedIDs {
		idArr[i] = ir.Text(id)
	}
	batch.Emit(event.New("row_deleted", map[string]ir.Value{
		"table": ir.Text(table),
		"ids":   idArr,
	}))
	if returning != nil && len(returnedRows) > 0 {
		batch.Emit(event.New("query_result", map[string]ir.Value{"rows": returnedRows}))
	}
	return batch, nil
}
