package gates

import (
	"sort"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/parse"
	"github.com/roach88/nysql/internal/state"
)

// CreateTableGate implements create_table_execute.
type CreateTableGate struct{}

func (CreateTableGate) Signature() string { return "create_table_execute" }

func (CreateTableGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().WithRef(schemaKey(table))
}

func (CreateTableGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	columns, _ := e.MustGet("columns").(ir.Array)
	ifNotExists := boolOf(e.MustGet("ifNotExists"))

	if _, ok := resolved.Ref(schemaKey(table)); ok {
		if ifNotExists {
			batch := state.NewMutationBatch()
			batch.Emit(event.New("table_exists", map[string]ir.Value{"table": ir.Text(table)}))
			return batch, nil
		}
		return nil, TableExistsError{Table: table}
	}

	batch := state.NewMutationBatch()
	schemaIdx := batch.Put("schema", ir.Object{"table": ir.Text(table), "columns": columns})
	batch.SetFromPut(schemaKey(table), schemaIdx)
	nextIDIdx := batch.Put("next_id", ir.Int(0))
	batch.SetFromPut(nextIDKey(table), nextIDIdx)
	batch.Emit(event.New("table_created", map[string]ir.Value{"table": ir.Text(table)}))
	return batch, nil
}

// CreateTableAsSelectGate implements create_table_as_select: the SELECT
// the parser captured as raw tokens is parsed and executed here, since
// doing so requires resolved table state the parser never has access to.
type CreateTableAsSelectGate struct{}

func (CreateTableAsSelectGate) Signature() string { return "create_table_as_select" }

func (CreateTableAsSelectGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	rs := state.NewReadSet().WithRef(schemaKey(table))
	sql, _ := asString(e.MustGet("selectTokens"))
	pipeline, err := parse.ParseSelectPipeline(sql)
	if err != nil {
		return rs
	}
	walkPipelineReads(pipeline, rs)
	return rs
}

func (CreateTableAsSelectGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	if _, ok := resolved.Ref(schemaKey(table)); ok {
		return nil, TableExistsError{Table: table}
	}

	sql, _ := asString(e.MustGet("selectTokens"))
	pipeline, err := parse.ParseSelectPipeline(sql)
	if err != nil {
		return nil, err
	}

	rows, err := exec.Execute(pipeline, &exec.Context{Resolved: resolved, CTEs: map[string]exec.RowSet{}})
	if err != nil {
		return nil, err
	}

	var colNames []string
	if len(rows) > 0 {
		for name := range rows[0] {
			colNames = append(colNames, name)
		}
		sort.Strings(colNames)
	}
	columns := make(ir.Array, len(colNames))
	for i, name := range colNames {
		columns[i] = ir.Object{"name": ir.Text(name), "type": ir.Text("text")}
	}

	batch := state.NewMutationBatch()
	schemaIdx := batch.Put("schema", ir.Object{"table": ir.Text(table), "columns": columns})
	batch.SetFromPut(schemaKey(table), schemaIdx)

	var nextID int64
	for _, row := range rows {
		nextID++
		complete := exprRowToObject(row)
		complete["id"] = ir.Int(nextID)
		rowIdx := batch.Put("row", complete)
		batch.SetFromPut(rowKey(table, nextID), rowIdx)
	}
	nextIDIdx := batch.Put("next_id", ir.Int(nextID))
	batch.SetFromPut(nextIDKey(table), nextIDIdx)

	batch.Emit(event.New("table_created", map[string]ir.Value{"table": ir.Text(table)}))
	return batch, nil
}

func boolOf(v ir.Value) bool {
	b, ok := v.(ir.Bool)
	return ok && bool(b)
}
