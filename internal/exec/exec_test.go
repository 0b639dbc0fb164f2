package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
	"github.com/roach88/nysql/internal/state"
)

func resolvedWithRows(prefix string, rows ...ir.Object) *state.Resolved {
	r := state.NewResolved()
	entries := make([]state.NamedEntry, len(rows))
	for i, row := range rows {
		entries[i] = state.NamedEntry{Name: prefix + "row" + string(rune('0'+i)), Value: row}
	}
	r.SetPattern(prefix, entries)
	return r
}

func TestExecuteVirtualRow(t *testing.T) {
	pipeline := ir.Array{plan.Step(plan.StepVirtualRow, nil)}
	rows, err := Execute(pipeline, &Context{Resolved: state.NewResolved()})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExecuteTableScanAndFilter(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/",
		ir.Object{"id": ir.Int(1), "name": ir.Text("a")},
		ir.Object{"id": ir.Int(2), "name": ir.Text("b")},
	)
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepFilter, ir.Object{"condition": expr.Binary("=", expr.Column("id"), expr.Literal(ir.Int(2)))}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("b"), rows[0]["name"])
}

func TestExecuteProject(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/", ir.Object{"id": ir.Int(1), "name": ir.Text("a")})
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepProject, ir.Object{"columns": ir.Array{
			ir.Object{"alias": ir.Text("n"), "expr": expr.Column("name")},
		}}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("a"), rows[0]["n"])
	_, hasID := rows[0]["id"]
	assert.False(t, hasID)
}

func TestExecuteOrderByAndLimit(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/",
		ir.Object{"id": ir.Int(3)},
		ir.Object{"id": ir.Int(1)},
		ir.Object{"id": ir.Int(2)},
	)
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepOrderBy, ir.Object{"keys": ir.Array{ir.Object{"column": ir.Text("id")}}}),
		plan.Step(plan.StepLimit, ir.Object{"limit": ir.Int(2), "offset": ir.Int(0)}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ir.Int(1), rows[0]["id"])
	assert.Equal(t, ir.Int(2), rows[1]["id"])
}

func TestExecuteDistinct(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/",
		ir.Object{"id": ir.Int(1)},
		ir.Object{"id": ir.Int(1)},
	)
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepDistinct, nil),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExecuteAggregateSumGroupBy(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/",
		ir.Object{"category": ir.Text("x"), "amount": ir.Int(10)},
		ir.Object{"category": ir.Text("x"), "amount": ir.Int(5)},
		ir.Object{"category": ir.Text("y"), "amount": ir.Int(1)},
	)
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepAggregate, ir.Object{
			"groupBy": ir.Array{ir.Text("category")},
			"aggregates": ir.Array{
				ir.Object{"fn": ir.Text("SUM"), "column": ir.Text("amount"), "alias": ir.Text("total")},
			},
		}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	totals := map[string]ir.Value{}
	for _, r := range rows {
		totals[string(r["category"].(ir.Text))] = r["total"]
	}
	assert.Equal(t, ir.Int(15), totals["x"])
	assert.Equal(t, ir.Int(1), totals["y"])
}

func TestExecuteJoinInner(t *testing.T) {
	leftResolved := resolvedWithRows("db/a/rows/", ir.Object{"id": ir.Int(1), "name": ir.Text("a1")})
	rightRows := []ir.Object{{"a_id": ir.Int(1), "tag": ir.Text("t1")}}
	rightEntries := make([]state.NamedEntry, len(rightRows))
	for i, r := range rightRows {
		rightEntries[i] = state.NamedEntry{Name: "db/b/rows/r" + string(rune('0'+i)), Value: r}
	}
	leftResolved.SetPattern("db/b/rows/", rightEntries)

	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/a/rows/")}),
		plan.Step(plan.StepJoin, ir.Object{
			"type":  ir.Text(plan.JoinInner),
			"right": ir.Array{plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/b/rows/")})},
			"on":    expr.Binary("=", expr.Column("id"), expr.Column("a_id")),
		}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: leftResolved})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("t1"), rows[0]["tag"])
}

func TestExecuteJoinLeftKeepsUnmatched(t *testing.T) {
	leftResolved := resolvedWithRows("db/a/rows/", ir.Object{"id": ir.Int(1)}, ir.Object{"id": ir.Int(2)})
	leftResolved.SetPattern("db/b/rows/", []state.NamedEntry{
		{Name: "db/b/rows/r0", Value: ir.Object{"a_id": ir.Int(1)}},
	})

	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/a/rows/")}),
		plan.Step(plan.StepJoin, ir.Object{
			"type":  ir.Text(plan.JoinLeft),
			"right": ir.Array{plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/b/rows/")})},
			"on":    expr.Binary("=", expr.Column("id"), expr.Column("a_id")),
		}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: leftResolved})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExecuteUnion(t *testing.T) {
	leftResolved := resolvedWithRows("db/a/rows/", ir.Object{"id": ir.Int(1)})
	leftResolved.SetPattern("db/b/rows/", []state.NamedEntry{{Name: "db/b/rows/r0", Value: ir.Object{"id": ir.Int(2)}}})

	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/a/rows/")}),
		plan.Step(plan.StepUnion, ir.Object{
			"op":    ir.Text(plan.SetUnion),
			"all":   ir.Bool(false),
			"right": ir.Array{plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/b/rows/")})},
		}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: leftResolved})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExecuteWindowRowNumber(t *testing.T) {
	resolved := resolvedWithRows("db/t/rows/",
		ir.Object{"id": ir.Int(2)},
		ir.Object{"id": ir.Int(1)},
	)
	pipeline := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("db/t/rows/")}),
		plan.Step(plan.StepOrderBy, ir.Object{"keys": ir.Array{ir.Object{"column": ir.Text("id")}}}),
		plan.Step(plan.StepWindow, ir.Object{"functions": ir.Array{
			ir.Object{"fn": ir.Text("ROW_NUMBER"), "alias": ir.Text("rn"), "orderBy": ir.Array{ir.Object{"column": ir.Text("id")}}},
		}}),
	}
	rows, err := Execute(pipeline, &Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ir.Int(1), rows[0]["rn"])
	assert.Equal(t, ir.Int(2), rows[1]["rn"])
}

func TestExecuteRecursiveCTE(t *testing.T) {
	resolved := state.NewResolved()
	base := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text("__never__/")}),
	}
	// base case is a virtual row with n=1
	base = ir.Array{
		plan.Step(plan.StepVirtualRow, nil),
		plan.Step(plan.StepProject, ir.Object{"columns": ir.Array{
			ir.Object{"alias": ir.Text("n"), "expr": expr.Literal(ir.Int(1))},
		}}),
	}
	recursive := ir.Array{
		plan.Step(plan.StepTableScan, ir.Object{"cteRef": ir.Text("counter")}),
		plan.Step(plan.StepFilter, ir.Object{"condition": expr.Binary("<", expr.Column("n"), expr.Literal(ir.Int(4)))}),
		plan.Step(plan.StepProject, ir.Object{"columns": ir.Array{
			ir.Object{"alias": ir.Text("n"), "expr": expr.Binary("+", expr.Column("n"), expr.Literal(ir.Int(1)))},
		}}),
	}
	step := plan.Step(plan.StepDerivedScan, ir.Object{
		"recursive":     ir.Bool(true),
		"cteName":       ir.Text("counter"),
		"baseCase":      base,
		"recursiveCase": recursive,
		"columns":       ir.Array{ir.Text("n")},
	})

	rows, err := Execute(ir.Array{step}, &Context{Resolved: resolved, CTEs: map[string]RowSet{}})
	require.NoError(t, err)

	var ns []int64
	for _, r := range rows {
		ns = append(ns, int64(r["n"].(ir.Int)))
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ns)
}
