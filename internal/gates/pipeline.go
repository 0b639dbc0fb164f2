package gates

import (
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
	"github.com/roach88/nysql/internal/sql/parse"
	"github.com/roach88/nysql/internal/state"
)

func asString(v ir.Value) (string, bool) {
	t, ok := v.(ir.Text)
	return string(t), ok
}

// walkPipelineReads recurses over a query plan pipeline, adding every
// table/index prefix a step scans to rs, so the Runner resolves all table
// state a query_plan (or a statement that embeds one, like CREATE TABLE
// AS SELECT) needs before execution runs.
func walkPipelineReads(pipeline ir.Array, rs *state.ReadSet) {
	for _, step := range pipeline {
		walkStepReads(step, rs)
	}
}

func walkStepReads(step ir.Value, rs *state.ReadSet) {
	switch plan.Type(step) {
	case plan.StepTableScan:
		if prefix := plan.Text(step, "prefix"); prefix != "" {
			rs.WithPattern(prefix)
		}
	case plan.StepIndexScan:
		if prefix := plan.Text(step, "prefix"); prefix != "" {
			rs.WithPattern(prefix)
		}
		if rp := plan.Text(step, "rowsPrefix"); rp != "" {
			rs.WithPattern(rp)
		}
	case plan.StepDerivedScan:
		walkPipelineReads(plan.Array(step, "pipeline"), rs)
		walkPipelineReads(plan.Array(step, "baseCase"), rs)
		walkPipelineReads(plan.Array(step, "recursiveCase"), rs)
	case plan.StepJoin, plan.StepUnion:
		walkPipelineReads(plan.Array(step, "right"), rs)
	}
	walkSubqueryReads(step, rs)
}

// walkSubqueryReads descends into any expr.Object embedded in the step
// (filter/join conditions) looking for raw subquery token text the parser
// left unparsed (EXISTS/IN (SELECT ...)); those subqueries are resolved by
// the query_plan gate, which needs their tables read too.
func walkSubqueryReads(step ir.Value, rs *state.ReadSet) {
	obj, ok := step.(ir.Object)
	if !ok {
		return
	}
	for _, v := range obj {
		walkValueForSubqueries(v, rs)
	}
}

func walkValueForSubqueries(v ir.Value, rs *state.ReadSet) {
	switch n := v.(type) {
	case ir.Object:
		kind, _ := n["kind"].(ir.Text)
		if kind == expr.KindExists || kind == expr.KindInSubquery {
			if sql, ok := n["subquery"].(ir.Text); ok {
				if sub, err := parse.ParseSelectPipeline(string(sql)); err == nil {
					walkPipelineReads(sub, rs)
				}
			}
		}
		for _, child := range n {
			walkValueForSubqueries(child, rs)
		}
	case ir.Array:
		for _, child := range n {
			walkValueForSubqueries(child, rs)
		}
	}
}
