package exec

import (
	"fmt"

	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/parse"
)

// resolveSubqueries rewrites every exists/in_subquery node reachable from
// condition into a literal, by parsing and running the captured SQL text
// once against ctx. These subqueries are never correlated (the captured
// SQL has no way to reference the outer row), so evaluating each one
// exactly once here -- rather than per row inside expr.Eval -- is both
// correct and cheaper.
func resolveSubqueries(condition ir.Value, ctx *Context) (ir.Value, error) {
	switch node := condition.(type) {
	case ir.Array:
		out := make(ir.Array, len(node))
		for i, v := range node {
			rv, err := resolveSubqueries(v, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil

	case ir.Object:
		kind, _ := node["kind"].(ir.Text)
		switch string(kind) {
		case expr.KindExists:
			rows, err := runSubquery(node, ctx)
			if err != nil {
				return nil, err
			}
			return expr.Literal(ir.Bool(len(rows) > 0)), nil

		case expr.KindInSubquery:
			rows, err := runSubquery(node, ctx)
			if err != nil {
				return nil, err
			}
			values := make(ir.Array, 0, len(rows))
			for _, row := range rows {
				values = append(values, firstColumn(row))
			}
			operand, err := resolveSubqueries(node["operand"], ctx)
			if err != nil {
				return nil, err
			}
			return ir.Object{"kind": ir.Text(expr.KindInList), "operand": operand, "values": values}, nil

		default:
			out := ir.Object{}
			for k, v := range node {
				rv, err := resolveSubqueries(v, ctx)
				if err != nil {
					return nil, err
				}
				out[k] = rv
			}
			return out, nil
		}

	default:
		return condition, nil
	}
}

func runSubquery(node ir.Object, ctx *Context) (RowSet, error) {
	sql, _ := node["subquery"].(ir.Text)
	pipeline, err := parse.ParseSelectPipeline(string(sql))
	if err != nil {
		return nil, fmt.Errorf("exec: subquery: %w", err)
	}
	return Execute(pipeline, &Context{Resolved: ctx.Resolved, CTEs: ctx.CTEs})
}

// firstColumn returns an arbitrary column's value from a single-column
// subquery result row. Row is a Go map, so when a SELECT projects more
// than one column the choice is unspecified; IN (SELECT ...) is expected
// to project exactly one.
func firstColumn(row Row) ir.Value {
	for _, v := range row {
		return v
	}
	return ir.Null{}
}
