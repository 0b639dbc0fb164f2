package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// QueryPlanGate implements the query_plan event emitted by the parser
// for every SELECT: it resolves the pipeline's table/index reads and
// runs it through internal/exec, surfacing the rows as a query_result.
type QueryPlanGate struct{}

func (QueryPlanGate) Signature() string { return "query_plan" }

func (QueryPlanGate) ReadSet(e event.Event) *state.ReadSet {
	pipeline, _ := e.MustGet("pipeline").(ir.Array)
	rs := state.NewReadSet()
	walkPipelineReads(pipeline, rs)
	return rs
}

func (QueryPlanGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	pipeline, _ := e.MustGet("pipeline").(ir.Array)

	rows, err := exec.Execute(pipeline, &exec.Context{Resolved: resolved, CTEs: map[string]exec.RowSet{}})
	if err != nil {
		return nil, err
	}

	out := make(ir.Array, len(rows))
	for i, row := range rows {
		out[i] = exprRowToObject(row)
	}

	batch := state.NewMutationBatch()
	batch.Emit(event.New("query_result", map[string]ir.Value{"rows": out}))
	return batch, nil
}
