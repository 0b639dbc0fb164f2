package exec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
)

func execAggregate(step ir.Value, in RowSet) (RowSet, error) {
	groupBy := columnNames(plan.Array(step, "groupBy"))
	aggregates := plan.Array(step, "aggregates")

	groups := map[string][]Row{}
	var order []string
	for _, row := range in {
		key, err := distinctKey(row, groupBy)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	if len(groupBy) == 0 && len(in) == 0 {
		// a bare aggregate with no rows still produces one group (e.g. COUNT(*) = 0)
		groups[""] = nil
		order = []string{""}
	}

	out := make(RowSet, 0, len(order))
	for _, key := range order {
		rows := groups[key]
		result := Row{}
		if len(rows) > 0 {
			for _, col := range groupBy {
				result[bareName(col)] = rows[0][col]
			}
		}
		for _, a := range aggregates {
			aggObj, ok := a.(ir.Object)
			if !ok {
				continue
			}
			fn, _ := aggObj["fn"].(ir.Text)
			col, _ := aggObj["column"].(ir.Text)
			alias, _ := aggObj["alias"].(ir.Text)
			distinct := false
			if d, ok := aggObj["distinct"].(ir.Bool); ok {
				distinct = bool(d)
			}
			separator := ", "
			if s, ok := aggObj["separator"].(ir.Text); ok {
				separator = string(s)
			}

			v, err := computeAggregate(string(fn), string(col), distinct, separator, rows)
			if err != nil {
				return nil, err
			}

			key := string(alias)
			if key == "" {
				key = string(fn)
			}
			result[key] = v
			result[strings.ToUpper(string(fn))+"("+string(col)+")"] = v
		}
		out = append(out, result)
	}
	return out, nil
}

func computeAggregate(fn, col string, distinct bool, separator string, rows []Row) (ir.Value, error) {
	switch strings.ToUpper(fn) {
	case "COUNT":
		if col == "*" || col == "" {
			return ir.Int(len(rows)), nil
		}
		seen := map[string]bool{}
		count := 0
		for _, r := range rows {
			v, ok := r[col]
			if !ok || ir.IsNull(v) {
				continue
			}
			if distinct {
				canon, err := ir.Canonicalize(v)
				if err != nil {
					return nil, err
				}
				if seen[string(canon)] {
					continue
				}
				seen[string(canon)] = true
			}
			count++
		}
		return ir.Int(count), nil

	case "SUM", "AVG":
		sum := 0.0
		n := 0
		isFloat := false
		for _, r := range rows {
			v, ok := r[col]
			if !ok || ir.IsNull(v) {
				continue
			}
			f, ok := numeric(v)
			if !ok {
				continue
			}
			if _, ok := v.(ir.Float); ok {
				isFloat = true
			}
			sum += f
			n++
		}
		if n == 0 {
			return ir.Null{}, nil
		}
		if strings.ToUpper(fn) == "AVG" {
			return ir.Float(sum / float64(n)), nil
		}
		if isFloat {
			return ir.Float(sum), nil
		}
		return ir.Int(int64(sum)), nil

	case "MIN", "MAX":
		var best ir.Value
		for _, r := range rows {
			v, ok := r[col]
			if !ok || ir.IsNull(v) {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			if strings.ToUpper(fn) == "MIN" && ir.Less(v, best) {
				best = v
			}
			if strings.ToUpper(fn) == "MAX" && ir.Less(best, v) {
				best = v
			}
		}
		if best == nil {
			return ir.Null{}, nil
		}
		return best, nil

	case "GROUP_CONCAT":
		var parts []string
		for _, r := range rows {
			v, ok := r[col]
			if !ok || ir.IsNull(v) {
				continue
			}
			parts = append(parts, toDisplayString(v))
		}
		return ir.Text(strings.Join(parts, separator)), nil

	default:
		return nil, fmt.Errorf("exec: unknown aggregate function %q", fn)
	}
}

func numeric(v ir.Value) (float64, bool) {
	switch t := v.(type) {
	case ir.Int:
		return float64(t), true
	case ir.Float:
		return float64(t), true
	default:
		return 0, false
	}
}

func toDisplayString(v ir.Value) string {
	if t, ok := v.(ir.Text); ok {
		return string(t)
	}
	return fmt.Sprintf("%v", ir.ToGo(v))
}

func execWindow(step ir.Value, in RowSet) (RowSet, error) {
	functions := plan.Array(step, "functions")

	out := make(RowSet, len(in))
	for i, row := range in {
		nr := Row{}
		for k, v := range row {
			nr[k] = v
		}
		out[i] = nr
	}

	for _, f := range functions {
		fnObj, ok := f.(ir.Object)
		if !ok {
			continue
		}
		if err := applyWindowFunction(fnObj, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyWindowFunction(fnObj ir.Object, rows RowSet) error {
	fn, _ := fnObj["fn"].(ir.Text)
	alias, _ := fnObj["alias"].(ir.Text)
	col, _ := fnObj["column"].(ir.Text)
	partitionBy := columnNames(arrayField(fnObj, "partitionBy"))
	orderBy := arrayField(fnObj, "orderBy")

	partitions := map[string][]int{}
	var order []string
	for i, row := range rows {
		key, err := distinctKey(row, partitionBy)
		if err != nil {
			return err
		}
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], i)
	}

	key := string(alias)
	if key == "" {
		key = strings.ToLower(string(fn))
	}

	for _, pk := range order {
		idxs := partitions[pk]
		sort.SliceStable(idxs, func(a, b int) bool {
			return lessByOrderKeys(rows[idxs[a]], rows[idxs[b]], orderBy)
		})

		switch strings.ToUpper(string(fn)) {
		case "ROW_NUMBER":
			for rank, idx := range idxs {
				rows[idx][key] = ir.Int(rank + 1)
			}
		case "RANK", "DENSE_RANK":
			rank := 0
			dense := 0
			for i, idx := range idxs {
				if i == 0 || !equalByOrderKeys(rows[idxs[i-1]], rows[idx], orderBy) {
					rank = i + 1
					dense++
				}
				if strings.ToUpper(string(fn)) == "RANK" {
					rows[idx][key] = ir.Int(rank)
				} else {
					rows[idx][key] = ir.Int(dense)
				}
			}
		case "SUM", "AVG", "COUNT", "MIN", "MAX":
			partRows := make([]Row, len(idxs))
			for i, idx := range idxs {
				partRows[i] = rows[idx]
			}
			v, err := computeAggregate(string(fn), string(col), false, ", ", partRows)
			if err != nil {
				return err
			}
			for _, idx := range idxs {
				rows[idx][key] = v
			}
		default:
			return fmt.Errorf("exec: unknown window function %q", fn)
		}
	}
	return nil
}

func arrayField(obj ir.Object, key string) ir.Array {
	a, _ := obj[key].(ir.Array)
	return a
}

func lessByOrderKeys(a, b Row, keys ir.Array) bool {
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
		va, vb := a[string(col)], b[string(col)]
		if ir.Equal(va, vb) {
			continue
		}
		if desc {
			return ir.Less(vb, va)
		}
		return ir.Less(va, vb)
	}
	return false
}

func equalByOrderKeys(a, b Row, keys ir.Array) bool {
	for _, k := range keys {
		keyObj, ok := k.(ir.Object)
		if !ok {
			continue
		}
		col, _ := keyObj["column"].(ir.Text)
		if !ir.Equal(a[string(col)], b[string(col)]) {
			return false
		}
	}
	return true
}
