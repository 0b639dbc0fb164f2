// Package plan represents query plans the way spec.md §3 and §4.9
// describe them: an ordered pipeline of typed steps, each step a keyed
// mapping of parameters. Plans are built and carried as plain ir.Value
// trees (an ir.Array of ir.Object steps) rather than a bespoke Go AST, so
// a plan is itself content-addressable and travels unchanged inside a
// query_plan event's data, exactly like any other value in the system.
package plan

import "github.com/roach88/nysql/internal/ir"

// Step type names, per spec.md §3.
const (
	StepVirtualRow  = "virtual_row"
	StepTableScan   = "table_scan"
	StepIndexScan   = "index_scan"
	StepDerivedScan = "derived_scan"
	StepFilter      = "filter"
	StepProject     = "project"
	StepOrderBy     = "order_by"
	StepLimit       = "limit"
	StepDistinct    = "distinct"
	StepAggregate   = "aggregate"
	StepWindow      = "window"
	StepJoin        = "join"
	StepUnion       = "union"
)

// Join types, per spec.md §4.9.
const (
	JoinInner = "inner"
	JoinLeft  = "left"
	JoinRight = "right"
	JoinFull  = "full"
	JoinCross = "cross"
)

// Set operation kinds for the union step.
const (
	SetUnion     = "union"
	SetExcept    = "except"
	SetIntersect = "intersect"
)

// Pipeline is an ordered sequence of steps.
type Pipeline = ir.Array

// Step builds a step object with the given type and fields merged in.
func Step(stepType string, fields ir.Object) ir.Object {
	out := ir.Object{"type": ir.Text(stepType)}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Type returns a step's "type" field as a string, or "" if absent/wrong type.
func Type(step ir.Value) string {
	obj, ok := step.(ir.Object)
	if !ok {
		return ""
	}
	t, ok := obj["type"].(ir.Text)
	if !ok {
		return ""
	}
	return string(t)
}

// Field returns step[key], or (nil, false) if absent.
func Field(step ir.Value, key string) (ir.Value, bool) {
	obj, ok := step.(ir.Object)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// Text returns step[key] as a string, defaulting to "".
func Text(step ir.Value, key string) string {
	v, ok := Field(step, key)
	if !ok {
		return ""
	}
	if t, ok := v.(ir.Text); ok {
		return string(t)
	}
	return ""
}

// Bool returns step[key] as a bool, defaulting to false.
func Bool(step ir.Value, key string) bool {
	v, ok := Field(step, key)
	if !ok {
		return false
	}
	if b, ok := v.(ir.Bool); ok {
		return bool(b)
	}
	return false
}

// Int returns step[key] as an int, defaulting to def.
func Int(step ir.Value, key string, def int) int {
	v, ok := Field(step, key)
	if !ok {
		return def
	}
	if n, ok := v.(ir.Int); ok {
		return int(n)
	}
	return def
}

// Array returns step[key] as an ir.Array, defaulting to nil.
func Array(step ir.Value, key string) ir.Array {
	v, ok := Field(step, key)
	if !ok {
		return nil
	}
	if a, ok := v.(ir.Array); ok {
		return a
	}
	return nil
}
