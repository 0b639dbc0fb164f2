package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// UpdateGate implements update_execute, including the spec's cross-join
// UPDATE ... FROM form: each target row is matched against every row of
// the FROM table, and the changes are applied once per match.
type UpdateGate struct{}

func (UpdateGate) Signature() string { return "update_execute" }

func (UpdateGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	rs := state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(indexNamesKey(table)).
		WithPattern(rowsPrefix(table)).
		WithPattern(indexesPrefix(table))
	if fromTable, ok := asString(e.MustGet("fromTable")); ok && fromTable != "" {
		rs.WithPattern(rowsPrefix(fromTable))
	}
	return rs
}

func (UpdateGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	if _, ok := resolved.Ref(schemaKey(table)); !ok {
		return nil, TableNotFoundError{Table: table}
	}

	changes, _ := e.MustGet("changesExprs").(ir.Object)
	where, hasWhere := e.Get("where")
	returning := e.MustGet("returning")
	if _, isNull := returning.(ir.Null); isNull {
		returning = nil
	}

	existing := rowsFromPattern(resolved.Pattern(rowsPrefix(table)))

	fromTable, hasFrom := asString(e.MustGet("fromTable"))
	fromAlias, _ := asString(e.MustGet("fromAlias"))
	var fromRows []ir.Object
	if hasFrom && fromTable != "" {
		for _, row := range rowsFromPattern(resolved.Pattern(rowsPrefix(fromTable))) {
			fromRows = append(fromRows, row)
		}
	}

	batch := state.NewMutationBatch()
	var updatedIDs []string
	var returnedRows ir.Array

	for id, row := range existing {
		targets := []ir.Object{row}
		if hasFrom {
			targets = matchFromRows(row, fromRows, fromAlias)
		}

		matchedAny := false
		for _, joined := range targets {
			if hasWhere {
				v, err := expr.Eval(where, rowToExprRow(joined))
				if err != nil {
					return nil, err
				}
				if !isTruthy(v) {
					continue
				}
			}
			matchedAny = true

			updated := ir.Object{}
			for k, v := range row {
				updated[k] = v
			}
			ctx := rowToExprRow(joined)
			for col, exprNode := range changes {
				v, err := expr.Eval(exprNode, ctx)
				if err != nil {
					return nil, err
				}
				updated[col] = v
			}
			existing[id] = updated
			row = updated
			if returning != nil {
				returnedRows = append(returnedRows, projectReturning(returning, updated))
			}
		}
		if matchedAny {
			idx := batch.Put("row", existing[id])
			batch.SetFromPut(rowKey(table, mustInt64(id)), idx)
			updatedIDs = append(updatedIDs, id)
		}
	}

	if err := rebuildIndexes(batch, resolved, table, existing); err != nil {
		return nil, err
	}

	idArr := make(ir.Array, len(updatedIDs))
	for i, id := range updatedIDs {
		idArr[i] = ir.Text(id)
	}
	batch.Emit(event.New("row_updated", map[string]ir.Value{
		"table": ir.Text(table),
		"ids":   idArr,
	}))
	if returning != nil && len(returnedRows) > 0 {
		batch.Emit(event.New("query_result", map[string]ir.Value{"rows": returnedRows}))
	}
	return batch, nil
}

func isTruthy(v ir.Value) bool {
	b, ok := v.(ir.Bool)
	return ok && bool(b)
}

// matchFromRows crosses row with every row of fromRows, as the target
// table's cross-join partner, qualifying fromRows' columns with alias
// when given.
func matchFromRows(row ir.Object, fromRows []ir.Object, alias string) []ir.Object {
	if len(fromRows) == 0 {
		return []ir.Object{row}
	}
	out := make([]ir.Object, 0, len(fromRows))
	for _, fr := range fromRows {
		joined := ir.Object{}
		for k, v := range row {
			joined[k] = v
		}
		for k, v := range fr {
			joined[k] = v
			if alias != "" {
				joined[alias+"."+k] = v
			}
		}
		out = append(out, joined)
	}
	return out
}
