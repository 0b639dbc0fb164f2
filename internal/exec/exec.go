// Package exec implements the query plan executor of spec.md §4.9: a
// linear walk over a pipeline of typed steps, each consuming the row
// sequence produced by the step before it.
package exec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
	"github.com/roach88/nysql/internal/state"
)

// Row is a single result row: a flat mapping from (possibly qualified)
// column name to value.
type Row = expr.Row

// RowSet is an ordered sequence of rows.
type RowSet []Row

// Context carries whatever the executor needs beyond the pipeline itself:
// the resolved ReadSet state backing table/index scans, and named CTEs
// available to derived_scan steps.
type Context struct {
	Resolved *state.Resolved
	CTEs     map[string]RowSet // name -> materialized rows
}

// maxRecursiveIterations bounds the recursive CTE fixpoint loop, per
// spec.md §4.9's "implementation-defined maximum (>= 1000)".
const maxRecursiveIterations = 1000

// Execute runs pipeline against ctx and returns the resulting row set.
func Execute(pipeline ir.Array, ctx *Context) (RowSet, error) {
	var rows RowSet
	for i, step := range pipeline {
		var err error
		rows, err = executeStep(step, rows, ctx)
		if err != nil {
			return nil, fmt.Errorf("exec: step %d (%s): %w", i, plan.Type(step), err)
		}
	}
	return rows, nil
}

func executeStep(step ir.Value, in RowSet, ctx *Context) (RowSet, error) {
	switch plan.Type(step) {
	case plan.StepVirtualRow:
		return RowSet{Row{}}, nil
	case plan.StepTableScan:
		return execTableScan(step, ctx)
	case plan.StepIndexScan:
		return execIndexScan(step, ctx)
	case plan.StepDerivedScan:
		return execDerivedScan(step, ctx)
	case plan.StepFilter:
		return execFilter(step, in, ctx)
	case plan.StepProject:
		return execProject(step, in)
	case plan.StepOrderBy:
		return execOrderBy(step, in)
	case plan.StepLimit:
		return execLimit(step, in)
	case plan.StepDistinct:
		return execDistinct(step, in)
	case plan.StepAggregate:
		return execAggregate(step, in)
	case plan.StepWindow:
		return execWindow(step, in)
	case plan.StepJoin:
		return execJoin(step, in, ctx)
	case plan.StepUnion:
		return execUnion(step, in, ctx)
	default:
		return nil, fmt.Errorf("unknown step type %q", plan.Type(step))
	}
}

func objectToRow(v ir.Value) Row {
	row := Row{}
	if obj, ok := v.(ir.Object); ok {
		for k, val := range obj {
			row[k] = val
		}
	}
	return row
}

func execTableScan(step ir.Value, ctx *Context) (RowSet, error) {
	if cteName := plan.Text(step, "cteRef"); cteName != "" {
		return aliasRows(ctx.CTEs[cteName], plan.Text(step, "alias")), nil
	}

	prefix := plan.Text(step, "prefix")
	alias := plan.Text(step, "alias")

	entries := ctx.Resolved.Pattern(prefix)
	rows := make(RowSet, 0, len(entries))
	for _, entry := range entries {
		row := objectToRow(entry.Value)
		if alias != "" {
			for k, v := range row {
				row[alias+"."+k] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func execIndexScan(step ir.Value, ctx *Context) (RowSet, error) {
	prefix := plan.Text(step, "prefix")
	op := plan.Text(step, "op")
	value, _ := plan.Field(step, "value")

	entries := ctx.Resolved.Pattern(prefix)
	matched := map[string]bool{}
	for _, entry := range entries {
		idxEntry, ok := entry.Value.(ir.Object)
		if !ok {
			continue
		}
		key := idxEntry["key"]
		if !indexMatches(op, key, value) {
			continue
		}
		rowIDs, _ := idxEntry["row_ids"].(ir.Array)
		for _, id := range rowIDs {
			if t, ok := id.(ir.Text); ok {
				matched[string(t)] = true
			}
		}
	}

	rowsPrefix := plan.Text(step, "rowsPrefix")
	rowEntries := ctx.Resolved.Pattern(rowsPrefix)
	var rows RowSet
	for _, entry := range rowEntries {
		id := lastSegment(entry.Name)
		if matched[id] {
			rows = append(rows, objectToRow(entry.Value))
		}
	}
	return rows, nil
}

func lastSegment(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func indexMatches(op string, key, value ir.Value) bool {
	switch op {
	case "eq":
		return ir.Equal(key, value)
	case "neq":
		return !ir.Equal(key, value)
	case "gt":
		return ir.Less(value, key)
	case "lt":
		return ir.Less(key, value)
	case "gte":
		return !ir.Less(key, value)
	case "lte":
		return !ir.Less(value, key)
	case "range":
		rangeObj, ok := value.(ir.Object)
		if !ok {
			return false
		}
		if lo, ok := rangeObj["low"]; ok && ir.Less(key, lo) {
			return false
		}
		if hi, ok := rangeObj["high"]; ok && ir.Less(hi, key) {
			return false
		}
		return true
	default:
		return false
	}
}

func execDerivedScan(step ir.Value, ctx *Context) (RowSet, error) {
	if plan.Bool(step, "recursive") {
		return execRecursiveCTE(step, ctx)
	}
	if cteName := plan.Text(step, "cteRef"); cteName != "" {
		return aliasRows(ctx.CTEs[cteName], plan.Text(step, "alias")), nil
	}
	nested := plan.Array(step, "pipeline")
	return Execute(nested, ctx)
}

func aliasRows(rows RowSet, alias string) RowSet {
	if alias == "" {
		return rows
	}
	out := make(RowSet, len(rows))
	for i, r := range rows {
		nr := Row{}
		for k, v := range r {
			nr[k] = v
			nr[alias+"."+k] = v
		}
		out[i] = nr
	}
	return out
}

func execRecursiveCTE(step ir.Value, ctx *Context) (RowSet, error) {
	cteName := plan.Text(step, "cteName")
	base := plan.Array(step, "baseCase")
	recursive := plan.Array(step, "recursiveCase")
	columns := columnNames(plan.Array(step, "columns"))

	baseRows, err := Execute(base, ctx)
	if err != nil {
		return nil, fmt.Errorf("recursive cte base case: %w", err)
	}
	all := normalizeColumns(baseRows, columns)
	frontier := all

	childCTEs := cloneCTEs(ctx.CTEs)

	for i := 0; i < maxRecursiveIterations && len(frontier) > 0; i++ {
		childCTEs[cteName] = frontier
		childCtx := &Context{Resolved: ctx.Resolved, CTEs: childCTEs}
		next, err := Execute(recursive, childCtx)
		if err != nil {
			return nil, fmt.Errorf("recursive cte recursive case: %w", err)
		}
		next = normalizeColumns(next, columns)
		if len(next) == 0 {
			break
		}
		all = append(all, next...)
		frontier = next
	}
	return all, nil
}

func cloneCTEs(in map[string]RowSet) map[string]RowSet {
	out := make(map[string]RowSet, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func columnNames(cols ir.Array) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		if t, ok := c.(ir.Text); ok {
			names[i] = string(t)
		}
	}
	return names
}

// normalizeColumns returns a copy of rows with their keys unchanged (rows
// itself when no columns are declared). It renames nothing: the CTE's
// declared column names are applied at parse time, onto the body's
// project step, by internal/sql/parse's applyColumnAliases.
func normalizeColumns(rows RowSet, columns []string) RowSet {
	if len(columns) == 0 {
		return rows
	}
	out := make(RowSet, len(rows))
	for i, r := range rows {
		nr := Row{}
		for k, v := range r {
			nr[k] = v
		}
		out[i] = nr
	}
	return out
}

func execFilter(step ir.Value, in RowSet, ctx *Context) (RowSet, error) {
	condition, ok := plan.Field(step, "condition")
	if !ok {
		return in, nil
	}
	condition, err := resolveSubqueries(condition, ctx)
	if err != nil {
		return nil, fmt.Errorf("filter condition: %w", err)
	}
	var out RowSet
	for _, row := range in {
		v, err := expr.Eval(condition, row)
		if err != nil {
			return nil, err
		}
		if isTruthy(v) {
			out = append(out, row)
		}
	}
	return out, nil
}

func isTruthy(v ir.Value) bool {
	b, ok := v.(ir.Bool)
	return ok && bool(b)
}

func execProject(step ir.Value, in RowSet) (RowSet, error) {
	cols := plan.Array(step, "columns")
	if plan.Bool(step, "star") || len(cols) == 0 {
		return in, nil
	}

	out := make(RowSet, len(in))
	for i, row := range in {
		nr := Row{}
		for _, c := range cols {
			colObj, ok := c.(ir.Object)
			if !ok {
				continue
			}
			alias, _ := colObj["alias"].(ir.Text)
			exprNode, hasExpr := colObj["expr"]
			if !hasExpr {
				continue
			}
			v, err := expr.Eval(exprNode, row)
			if err != nil {
				return nil, err
			}
			key := string(alias)
			if key == "" {
				if name, ok := colObj["name"].(ir.Text); ok {
					key = bareName(string(name))
				}
			}
			nr[key] = v
		}
		out[i] = nr
	}
	return out, nil
}

func bareName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func execOrderBy(step ir.Value, in RowSet) (RowSet, error) {
	keys := plan.Array(step, "keys")
	out := make(RowSet, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			keyObj, ok := k.(ir.Object)
			if !ok {
				continue
			}
			col, _ := keyObj["column"].(ir.Text)
			desc := false
			if d, ok := keyObj["desc"].(ir.Bool); ok {
				desc = bool(d)
			}
			nullsFirst := false
			if nf, ok := keyObj["nullsFirst"].(ir.Bool); ok {
				nullsFirst = bool(nf)
			}

			vi := out[i][string(col)]
			vj := out[j][string(col)]

			if ir.IsNull(vi) && ir.IsNull(vj) {
				continue
			}
			if ir.IsNull(vi) {
				return nullsFirst
			}
			if ir.IsNull(vj) {
				return !nullsFirst
			}
			if ir.Equal(vi, vj) {
				continue
			}
			if desc {
				return ir.Less(vj, vi)
			}
			return ir.Less(vi, vj)
		}
		return false
	})
	return out, nil
}

func execLimit(step ir.Value, in RowSet) (RowSet, error) {
	offset := plan.Int(step, "offset", 0)
	limit := plan.Int(step, "limit", -1)

	if offset < 0 {
		offset = 0
	}
	if offset > len(in) {
		return RowSet{}, nil
	}
	end := len(in)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return in[offset:end], nil
}

func execDistinct(step ir.Value, in RowSet) (RowSet, error) {
	cols := columnNames(plan.Array(step, "columns"))

	seen := map[string]bool{}
	var out RowSet
	for _, row := range in {
		key, err := distinctKey(row, cols)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out, nil
}

func distinctKey(row Row, cols []string) (string, error) {
	obj := ir.Object{}
	if len(cols) == 0 {
		for k, v := range row {
			obj[k] = v
		}
	} else {
		for _, c := range cols {
			obj[c] = row[c]
		}
	}
	canon, err := ir.Canonicalize(obj)
	if err != nil {
		return "", err
	}
	return string(canon), nil
}
