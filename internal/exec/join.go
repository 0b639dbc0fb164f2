package exec

import (
	"fmt"

	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
)

func execJoin(step ir.Value, left RowSet, ctx *Context) (RowSet, error) {
	joinType := plan.Text(step, "type")
	rightPipeline := plan.Array(step, "right")
	on, hasOn := plan.Field(step, "on")

	right, err := Execute(rightPipeline, ctx)
	if err != nil {
		return nil, fmt.Errorf("join right side: %w", err)
	}

	if hasOn {
		on, err = resolveSubqueries(on, ctx)
		if err != nil {
			return nil, fmt.Errorf("join condition: %w", err)
		}
	}

	switch joinType {
	case plan.JoinCross:
		return crossJoin(left, right), nil
	case plan.JoinInner:
		if !hasOn {
			return crossJoin(left, right), nil
		}
		return innerJoin(left, right, on)
	case plan.JoinLeft:
		return outerJoin(left, right, on, true, false)
	case plan.JoinRight:
		return outerJoin(right, left, on, true, false)
	case plan.JoinFull:
		return fullJoin(left, right, on)
	default:
		return nil, fmt.Errorf("exec: unknown join type %q", joinType)
	}
}

func crossJoin(left, right RowSet) RowSet {
	out := make(RowSet, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, mergeRows(l, r))
		}
	}
	return out
}

func mergeRows(l, r Row) Row {
	merged := Row{}
	for k, v := range l {
		merged[k] = v
	}
	for k, v := range r {
		if _, collide := merged[k]; !collide {
			merged[k] = v
		}
	}
	return merged
}

func matchesOn(l, r Row, on ir.Value) (bool, error) {
	merged := mergeRows(l, r)
	v, err := expr.Eval(on, merged)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.Bool)
	return ok && bool(b), nil
}

func innerJoin(left, right RowSet, on ir.Value) (RowSet, error) {
	var out RowSet
	for _, l := range left {
		for _, r := range right {
			ok, err := matchesOn(l, r, on)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, mergeRows(l, r))
			}
		}
	}
	return out, nil
}

// outerJoin computes a LEFT JOIN of left against right (keepUnmatchedLeft
// controls whether unmatched left rows are padded with a null right
// side). Used directly for LEFT, and with operands swapped for RIGHT.
func outerJoin(left, right RowSet, on ir.Value, keepUnmatchedLeft, _ bool) (RowSet, error) {
	var out RowSet
	for _, l := range left {
		matched := false
		for _, r := range right {
			ok, err := matchesOn(l, r, on)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				out = append(out, mergeRows(l, r))
			}
		}
		if !matched && keepUnmatchedLeft {
			out = append(out, l)
		}
	}
	return out, nil
}

func fullJoin(left, right RowSet, on ir.Value) (RowSet, error) {
	var out RowSet
	rightMatched := make([]bool, len(right))

	for _, l := range left {
		matched := false
		for j, r := range right {
			ok, err := matchesOn(l, r, on)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				rightMatched[j] = true
				out = append(out, mergeRows(l, r))
			}
		}
		if !matched {
			out = append(out, l)
		}
	}
	for j, r := range right {
		if !rightMatched[j] {
			out = append(out, r)
		}
	}
	return out, nil
}

func execUnion(step ir.Value, left RowSet, ctx *Context) (RowSet, error) {
	op := plan.Text(step, "op")
	all := plan.Bool(step, "all")
	rightPipeline := plan.Array(step, "right")

	right, err := Execute(rightPipeline, ctx)
	if err != nil {
		return nil, fmt.Errorf("union right side: %w", err)
	}

	var out RowSet
	switch op {
	case plan.SetExcept:
		rightKeys, err := rowKeySet(right)
		if err != nil {
			return nil, err
		}
		for _, r := range left {
			key, err := rowKey(r)
			if err != nil {
				return nil, err
			}
			if !rightKeys[key] {
				out = append(out, r)
			}
		}
	case plan.SetIntersect:
		rightKeys, err := rowKeySet(right)
		if err != nil {
			return nil, err
		}
		for _, r := range left {
			key, err := rowKey(r)
			if err != nil {
				return nil, err
			}
			if rightKeys[key] {
				out = append(out, r)
			}
		}
	default: // union
		out = append(append(RowSet{}, left...), right...)
	}

	if all {
		return out, nil
	}
	return dedupe(out)
}

func rowKey(r Row) (string, error) {
	obj := ir.Object{}
	for k, v := range r {
		obj[k] = v
	}
	canon, err := ir.Canonicalize(obj)
	if err != nil {
		return "", err
	}
	return string(canon), nil
}

func rowKeySet(rows RowSet) (map[string]bool, error) {
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		key, err := rowKey(r)
		if err != nil {
			return nil, err
		}
		set[key] = true
	}
	return set, nil
}

func dedupe(rows RowSet) (RowSet, error) {
	seen := map[string]bool{}
	var out RowSet
	for _, r := range rows {
		key, err := rowKey(r)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, nil
}
