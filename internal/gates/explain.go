package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
	"github.com/roach88/nysql/internal/sql/parse"
)

// NewExplainGate returns the pure gate for EXPLAIN: it re-parses the
// captured statement into a pipeline and reports one row per step, each
// row's detail a canonicalized rendering of that step's fields (minus
// "type", which gets its own column).
func NewExplainGate() event.Gate {
	return event.NewPureGate("explain", explain)
}

func explain(e event.Event) []event.Event {
	sql, _ := e.Get("statementTokens")
	sqlText, _ := sql.(ir.Text)

	pipeline, err := parse.ParseSelectPipeline(string(sqlText))
	if err != nil {
		return []event.Event{event.Error(err.Error(), e)}
	}

	rows := make(ir.Array, len(pipeline))
	for i, step := range pipeline {
		rows[i] = explainRow(i, step)
	}
	return []event.Event{event.New("query_result", map[string]ir.Value{"rows": rows})}
}

func explainRow(index int, step ir.Value) ir.Value {
	obj, _ := step.(ir.Object)
	fields := ir.Object{}
	for k, v := range obj {
		if k == "type" {
			continue
		}
		fields[k] = v
	}
	detail, err := ir.Canonicalize(fields)
	if err != nil {
		detail = []byte("{}")
	}
	return ir.Object{
		"step":   ir.Int(index),
		"type":   ir.Text(plan.Type(step)),
		"detail": ir.Text(detail),
	}
}
