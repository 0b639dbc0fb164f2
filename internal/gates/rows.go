package gates

import (
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// schemaColumns extracts the ordered column definitions from a resolved
// schema ref value.
func schemaColumns(schema ir.Value) []ir.Object {
	obj, ok := schema.(ir.Object)
	if !ok {
		return nil
	}
	arr, ok := obj["columns"].(ir.Array)
	if !ok {
		return nil
	}
	cols := make([]ir.Object, 0, len(arr))
	for _, c := range arr {
		if co, ok := c.(ir.Object); ok {
			cols = append(cols, co)
		}
	}
	return cols
}

func columnName(col ir.Object) string {
	if t, ok := col["name"].(ir.Text); ok {
		return string(t)
	}
	return ""
}

// rowToExprRow flattens a stored row object into the map shape expression
// evaluation expects.
func rowToExprRow(row ir.Object) expr.Row {
	out := expr.Row{}
	for k, v := range row {
		out[k] = v
	}
	return out
}

func exprRowToObject(row expr.Row) ir.Object {
	out := ir.Object{}
	for k, v := range row {
		out[k] = v
	}
	return out
}

// buildCompleteRow applies schema defaults and NOT NULL checks to an
// insert's input values, per spec.md §4.10's insert_execute description,
// and stamps on the computed id.
func buildCompleteRow(table string, cols []ir.Object, id int64, input ir.Object) (ir.Object, error) {
	row := ir.Object{"id": ir.Int(id)}
	for _, col := range cols {
		name := columnName(col)
		if name == "" {
			continue
		}
		if v, ok := input[name]; ok && !ir.IsNull(v) {
			row[name] = v
			continue
		}
		if def, ok := col["default"]; ok {
			row[name] = def
			continue
		}
		if notNull, _ := col["notNull"].(ir.Bool); bool(notNull) {
			return nil, NotNullViolationError{Table: table, Column: name}
		}
		row[name] = ir.Null{}
	}
	return row, nil
}

// projectReturning builds the rows a RETURNING clause (or "*") should
// surface for one affected row.
func projectReturning(returning ir.Value, row ir.Object) ir.Object {
	if returning == nil {
		return nil
	}
	if star, ok := returning.(ir.Text); ok && string(star) == "*" {
		out := ir.Object{}
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	cols, ok := returning.(ir.Array)
	if !ok {
		return nil
	}
	out := ir.Object{}
	for _, c := range cols {
		name, ok := c.(ir.Text)
		if !ok {
			continue
		}
		out[string(name)] = row[string(name)]
	}
	return out
}

// rowsFromPattern converts a resolved rows pattern into id -> row object,
// keyed by the trailing path segment (the row's id as text).
func rowsFromPattern(entries []state.NamedEntry) map[string]ir.Object {
	out := make(map[string]ir.Object, len(entries))
	for _, e := range entries {
		obj, ok := e.Value.(ir.Object)
		if !ok {
			continue
		}
		out[lastSegment(e.Name)] = obj
	}
	return out
}
