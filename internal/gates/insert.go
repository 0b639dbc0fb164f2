package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec"
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/parse"
	"github.com/roach88/nysql/internal/state"
)

// InsertGate implements insert_execute.
type InsertGate struct{}

func (InsertGate) Signature() string { return "insert_execute" }

func (InsertGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(nextIDKey(table)).
		WithRef(indexNamesKey(table)).
		WithPattern(rowsPrefix(table)).
		WithPattern(indexesPrefix(table))
}

func (InsertGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	schemaVal, ok := resolved.Ref(schemaKey(table))
	if !ok {
		return nil, TableNotFoundError{Table: table}
	}
	cols := schemaColumns(schemaVal)

	nextIDVal, _ := resolved.Ref(nextIDKey(table))
	nextID, _ := nextIDVal.(ir.Int)

	existing := rowsFromPattern(resolved.Pattern(rowsPrefix(table)))

	onConflict, _ := e.MustGet("onConflict").(ir.Object)
	returning := e.MustGet("returning")
	if _, isNull := returning.(ir.Null); isNull {
		returning = nil
	}

	rows, _ := e.MustGet("rows").(ir.Array)
	batch := state.NewMutationBatch()

	var insertedIDs []string
	var returnedRows ir.Array

	for _, r := range rows {
		input, ok := r.(ir.Object)
		if !ok {
			continue
		}

		if onConflict != nil {
			if matchedID, matchedRow, found := findConflict(onConflict, input, existing); found {
				updated, err := applyConflictAction(onConflict, matchedRow)
				if err != nil {
					return nil, err
				}
				conflict := "skipped"
				if updated != nil {
					conflict = "updated"
					existing[matchedID] = updated
					idx := batch.Put("row", updated)
					batch.SetFromPut(rowKey(table, mustInt64(matchedID)), idx)
					if returning != nil {
						returnedRows = append(returnedRows, projectReturning(returning, updated))
					}
				}
				batch.Emit(event.New("row_inserted", map[string]ir.Value{
					"table":    ir.Text(table),
					"conflict": ir.Text(conflict),
				}))
				continue
			}
		}

		nextID++
		complete, err := buildCompleteRow(table, cols, int64(nextID), input)
		if err != nil {
			return nil, err
		}
		id := int64(nextID)
		existing[idString(id)] = complete
		idx := batch.Put("row", complete)
		batch.SetFromPut(rowKey(table, id), idx)
		insertedIDs = append(insertedIDs, idString(id))
		if returning != nil {
			returnedRows = append(returnedRows, projectReturning(returning, complete))
		}
	}

	nextIDIdx := batch.Put("next_id", nextID)
	batch.SetFromPut(nextIDKey(table), nextIDIdx)

	if err := rebuildIndexes(batch, resolved, table, existing); err != nil {
		return nil, err
	}

	if len(insertedIDs) > 0 {
		idArr := make(ir.Array, len(insertedIDs))
		for i, id := range insertedIDs {
			idArr[i] = ir.Text(id)
		}
		batch.Emit(event.New("row_inserted", map[string]ir.Value{
			"table": ir.Text(table),
			"ids":   idArr,
		}))
	}
	if returning != nil && len(returnedRows) > 0 {
		batch.Emit(event.New("query_result", map[string]ir.Value{"rows": returnedRows}))
	}

	return batch, nil
}

func findConflict(onConflict ir.Object, input ir.Object, existing map[string]ir.Object) (string, ir.Object, bool) {
	col, _ := onConflict["column"].(ir.Text)
	if col == "" {
		return "", nil, false
	}
	v, ok := input[string(col)]
	if !ok {
		return "", nil, false
	}
	for id, row := range existing {
		if ir.Equal(row[string(col)], v) {
			return id, row, true
		}
	}
	return "", nil, false
}

// applyConflictAction returns the updated row for a DO UPDATE conflict,
// or nil for DO NOTHING.
func applyConflictAction(onConflict ir.Object, matched ir.Object) (ir.Object, error) {
	action, _ := onConflict["action"].(ir.Text)
	if string(action) != "update" {
		return nil, nil
	}
	changes, _ := onConflict["changes"].(ir.Object)
	context := rowToExprRow(matched)
	updated := ir.Object{}
	for k, v := range matched {
		updated[k] = v
	}
	for col, exprNode := range changes {
		v, err := expr.Eval(exprNode, context)
		if err != nil {
			return nil, err
		}
		updated[col] = v
	}
	return updated, nil
}

func idString(id int64) string {
	return rowKey("", id)[len(rowsPrefix("")):]
}

func mustInt64(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

// InsertSelectGate implements insert_select: INSERT INTO t SELECT ...,
// parsed and run here since it needs resolved table state the parser
// never sees.
type InsertSelectGate struct{}

func (InsertSelectGate) Signature() string { return "insert_select" }

func (InsertSelectGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	rs := state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(nextIDKey(table)).
		WithRef(indexNamesKey(table)).
		WithPattern(rowsPrefix(table)).
		WithPattern(indexesPrefix(table))
	sql, _ := asString(e.MustGet("selectTokens"))
	if pipeline, err := parse.ParseSelectPipeline(sql); err == nil {
		walkPipelineReads(pipeline, rs)
	}
	return rs
}

func (InsertSelectGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	schemaVal, ok := resolved.Ref(schemaKey(table))
	if !ok {
		return nil, TableNotFoundError{Table: table}
	}
	cols := schemaColumns(schemaVal)
	columns, _ := e.MustGet("columns").(ir.Array)

	sql, _ := asString(e.MustGet("selectTokens"))
	pipeline, err := parse.ParseSelectPipeline(sql)
	if err != nil {
		return nil, err
	}
	srcRows, err := exec.Execute(pipeline, &exec.Context{Resolved: resolved, CTEs: map[string]exec.RowSet{}})
	if err != nil {
		return nil, err
	}

	nextIDVal, _ := resolved.Ref(nextIDKey(table))
	nextID, _ := nextIDVal.(ir.Int)
	existing := rowsFromPattern(resolved.Pattern(rowsPrefix(table)))

	batch := state.NewMutationBatch()
	var insertedIDs []string
	for _, r := range srcRows {
		input := positionalRowToColumns(r, columns)
		nextID++
		complete, err := buildCompleteRow(table, cols, int64(nextID), input)
		if err != nil {
			return nil, err
		}
		existing[idString(int64(nextID))] = complete
		idx := batch.Put("row", complete)
		batch.SetFromPut(rowKey(table, int64(nextID)), idx)
		insertedIDs = append(insertedIDs, idString(int64(nextID)))
	}

	nextIDIdx := batch.Put("next_id", nextID)
	batch.SetFromPut(nextIDKey(table), nextIDIdx)

	if err := rebuildIndexes(batch, resolved, table, existing); err != nil {
		return nil, err
	}

	idArr := make(ir.Array, len(insertedIDs))
	for i, id := range insertedIDs {
		idArr[i] = ir.Text(id)
	}
	batch.Emit(event.New("row_inserted", map[string]ir.Value{
		"table": ir.Text(table),
		"ids":   idArr,
	}))
	return batch, nil
}

// positionalRowToColumns maps a SELECT result row's values onto an
// explicit column list when one was given (INSERT INTO t (a,b) SELECT
// ...); with no explicit list the source row's own keys are used as-is.
func positionalRowToColumns(row exec.Row, columns ir.Array) ir.Object {
	if len(columns) == 0 {
		return exprRowToObject(row)
	}
	out := ir.Object{}
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	for i, c := range columns {
		name, ok := c.(ir.Text)
		if !ok || i >= len(names) {
			continue
		}
		out[string(name)] = row[names[i]]
	}
	return out
}
