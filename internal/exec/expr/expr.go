// Package expr evaluates the expression trees produced by the SQL parser.
// Expressions are ir.Object nodes tagged with a "kind" field, mirroring
// how internal/plan represents plan steps: a literal value tree rather
// than a bespoke Go AST, so an expression travels unchanged inside a
// parsed statement's event data.
package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/nysql/internal/ir"
)

// Row is the row type expressions are evaluated against: a flat mapping
// from (possibly qualified, e.g. "t.col") column name to value.
type Row map[string]ir.Value

// Node kinds.
const (
	KindLiteral    = "literal"
	KindColumn     = "column"
	KindBinary     = "binary"
	KindUnary      = "unary"
	KindCall       = "call"
	KindCase       = "case"
	KindStar       = "star"
	KindIsNull     = "is_null"
	KindInList     = "in_list"
	KindLike       = "like"
	KindExists     = "exists"
	KindInSubquery = "in_subquery"
)

// Literal builds a literal expression node.
func Literal(v ir.Value) ir.Object {
	return ir.Object{"kind": ir.Text(KindLiteral), "value": v}
}

// Column builds a column-reference expression node. name may be
// qualified ("t.col") or bare.
func Column(name string) ir.Object {
	return ir.Object{"kind": ir.Text(KindColumn), "name": ir.Text(name)}
}

// Binary builds a binary-operator expression node.
func Binary(op string, left, right ir.Object) ir.Object {
	return ir.Object{"kind": ir.Text(KindBinary), "op": ir.Text(op), "left": left, "right": right}
}

// Unary builds a unary-operator expression node.
func Unary(op string, operand ir.Object) ir.Object {
	return ir.Object{"kind": ir.Text(KindUnary), "op": ir.Text(op), "operand": operand}
}

// Call builds a function-call expression node.
func Call(name string, args ...ir.Object) ir.Object {
	argv := make(ir.Array, len(args))
	for i, a := range args {
		argv[i] = a
	}
	return ir.Object{"kind": ir.Text(KindCall), "name": ir.Text(name), "args": argv}
}

// Eval evaluates expr against row.
func Eval(expression ir.Value, row Row) (ir.Value, error) {
	node, ok := expression.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("expr: expected expression object, got %T", expression)
	}
	kind, _ := node["kind"].(ir.Text)

	switch string(kind) {
	case KindLiteral:
		return node["value"], nil

	case KindColumn:
		name, _ := node["name"].(ir.Text)
		if v, ok := row[string(name)]; ok {
			return v, nil
		}
		if bare, ok := stripQualifier(string(name)); ok {
			if v, ok := row[bare]; ok {
				return v, nil
			}
		}
		return ir.Null{}, nil

	case KindBinary:
		return evalBinary(node, row)

	case KindUnary:
		return evalUnary(node, row)

	case KindCall:
		return evalCall(node, row)

	case KindCase:
		return evalCase(node, row)

	case KindIsNull:
		operand, err := Eval(node["operand"], row)
		if err != nil {
			return nil, err
		}
		negate, _ := node["negate"].(ir.Bool)
		return ir.Bool(ir.IsNull(operand) != bool(negate)), nil

	case KindInList:
		return evalInList(node, row)

	case KindLike:
		return evalLike(node, row)

	case KindExists, KindInSubquery:
		// Resolved once, ahead of row-by-row evaluation, by
		// internal/exec's subquery preprocessing pass; reaching Eval
		// with one of these still in place means nothing rewrote it.
		return nil, fmt.Errorf("expr: unresolved subquery node %q", kind)

	default:
		return nil, fmt.Errorf("expr: unknown node kind %q", kind)
	}
}

func evalInList(node ir.Object, row Row) (ir.Value, error) {
	operand, err := Eval(node["operand"], row)
	if err != nil {
		return nil, err
	}
	values, _ := node["values"].(ir.Array)
	for _, v := range values {
		ve, err := Eval(v, row)
		if err != nil {
			return nil, err
		}
		if ir.Equal(operand, ve) {
			return ir.Bool(true), nil
		}
	}
	return ir.Bool(false), nil
}

func evalLike(node ir.Object, row Row) (ir.Value, error) {
	operand, err := Eval(node["operand"], row)
	if err != nil {
		return nil, err
	}
	patternVal, err := Eval(node["pattern"], row)
	if err != nil {
		return nil, err
	}
	if ir.IsNull(operand) || ir.IsNull(patternVal) {
		return ir.Null{}, nil
	}
	text, _ := operand.(ir.Text)
	pattern, _ := patternVal.(ir.Text)
	caseInsensitive, _ := node["caseInsensitive"].(ir.Bool)
	return ir.Bool(likeMatch(string(text), string(pattern), bool(caseInsensitive))), nil
}

// likeMatch implements SQL LIKE: '%' matches any run of characters, '_'
// matches exactly one, and '\' escapes a following '%', '_', or '\' so it
// is matched literally.
func likeMatch(text, pattern string, caseInsensitive bool) bool {
	if caseInsensitive {
		text = strings.ToLower(text)
		pattern = strings.ToLower(pattern)
	}
	return likeMatchRunes([]rune(text), []rune(pattern))
}

func likeMatchRunes(text, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(text) == 0
	}
	switch pattern[0] {
	case '%':
		if likeMatchRunes(text, pattern[1:]) {
			return true
		}
		for i := 0; i < len(text); i++ {
			if likeMatchRunes(text[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(text) == 0 {
			return false
		}
		return likeMatchRunes(text[1:], pattern[1:])
	case '\\':
		if len(pattern) < 2 {
			return len(text) > 0 && text[0] == '\\' && likeMatchRunes(text[1:], pattern[1:])
		}
		if len(text) == 0 || text[0] != pattern[1] {
			return false
		}
		return likeMatchRunes(text[1:], pattern[2:])
	default:
		if len(text) == 0 || text[0] != pattern[0] {
			return false
		}
		return likeMatchRunes(text[1:], pattern[1:])
	}
}

func stripQualifier(name string) (string, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", false
	}
	return name[idx+1:], true
}

func evalBinary(node ir.Object, row Row) (ir.Value, error) {
	op, _ := node["op"].(ir.Text)
	left, err := Eval(node["left"], row)
	if err != nil {
		return nil, err
	}
	right, err := Eval(node["right"], row)
	if err != nil {
		return nil, err
	}

	switch string(op) {
	case "||":
		return ir.Text(toConcatString(left) + toConcatString(right)), nil
	case "+", "-", "*", "/", "%":
		return arith(string(op), left, right)
	case "=":
		return ir.Bool(ir.Equal(left, right)), nil
	case "!=", "<>":
		return ir.Bool(!ir.Equal(left, right)), nil
	case "<":
		return ir.Bool(ir.Less(left, right)), nil
	case ">":
		return ir.Bool(ir.Less(right, left)), nil
	case "<=":
		return ir.Bool(!ir.Less(right, left)), nil
	case ">=":
		return ir.Bool(!ir.Less(left, right)), nil
	case "AND":
		return ir.Bool(truthy(left) && truthy(right)), nil
	case "OR":
		return ir.Bool(truthy(left) || truthy(right)), nil
	default:
		return nil, fmt.Errorf("expr: unknown binary operator %q", op)
	}
}

func evalUnary(node ir.Object, row Row) (ir.Value, error) {
	op, _ := node["op"].(ir.Text)
	operand, err := Eval(node["operand"], row)
	if err != nil {
		return nil, err
	}
	switch string(op) {
	case "-":
		switch n := operand.(type) {
		case ir.Int:
			return ir.Int(-n), nil
		case ir.Float:
			return ir.Float(-n), nil
		default:
			return nil, fmt.Errorf("expr: unary - on non-numeric value")
		}
	case "NOT":
		return ir.Bool(!truthy(operand)), nil
	default:
		return nil, fmt.Errorf("expr: unknown unary operator %q", op)
	}
}

func evalCall(node ir.Object, row Row) (ir.Value, error) {
	name, _ := node["name"].(ir.Text)
	args, _ := node["args"].(ir.Array)

	values := make([]ir.Value, len(args))
	for i, a := range args {
		v, err := Eval(a, row)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	switch strings.ToUpper(string(name)) {
	case "COALESCE":
		for _, v := range values {
			if !ir.IsNull(v) {
				return v, nil
			}
		}
		return ir.Null{}, nil
	case "UPPER":
		if len(values) != 1 {
			return nil, fmt.Errorf("expr: UPPER takes one argument")
		}
		t, _ := values[0].(ir.Text)
		return ir.Text(strings.ToUpper(string(t))), nil
	case "LOWER":
		if len(values) != 1 {
			return nil, fmt.Errorf("expr: LOWER takes one argument")
		}
		t, _ := values[0].(ir.Text)
		return ir.Text(strings.ToLower(string(t))), nil
	case "LENGTH":
		if len(values) != 1 {
			return nil, fmt.Errorf("expr: LENGTH takes one argument")
		}
		t, _ := values[0].(ir.Text)
		return ir.Int(len([]rune(string(t)))), nil
	case "ABS":
		if len(values) != 1 {
			return nil, fmt.Errorf("expr: ABS takes one argument")
		}
		switch n := values[0].(type) {
		case ir.Int:
			if n < 0 {
				return -n, nil
			}
			return n, nil
		case ir.Float:
			if n < 0 {
				return -n, nil
			}
			return n, nil
		}
		return ir.Null{}, nil
	case "IIF":
		if len(values) != 3 {
			return nil, fmt.Errorf("expr: IIF takes three arguments")
		}
		if truthy(values[0]) {
			return values[1], nil
		}
		return values[2], nil
	default:
		return nil, fmt.Errorf("expr: unknown function %q", name)
	}
}

func evalCase(node ir.Object, row Row) (ir.Value, error) {
	whens, _ := node["when"].(ir.Array)
	for _, w := range whens {
		wobj, ok := w.(ir.Object)
		if !ok {
			continue
		}
		cond, err := Eval(wobj["cond"], row)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return Eval(wobj["then"], row)
		}
	}
	if els, ok := node["else"]; ok {
		return Eval(els, row)
	}
	return ir.Null{}, nil
}

// truthy reports whether v is a "true" condition value: a Bool(true), or
// a non-null, non-zero/non-empty value coerced loosely.
func truthy(v ir.Value) bool {
	switch t := v.(type) {
	case ir.Bool:
		return bool(t)
	case ir.Null:
		return false
	case ir.Int:
		return t != 0
	case ir.Float:
		return t != 0
	case ir.Text:
		return t != ""
	default:
		return v != nil
	}
}

func toConcatString(v ir.Value) string {
	switch t := v.(type) {
	case ir.Text:
		return string(t)
	case ir.Null:
		return ""
	default:
		goVal := ir.ToGo(v)
		return fmt.Sprintf("%v", goVal)
	}
}

func arith(op string, l, r ir.Value) (ir.Value, error) {
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return ir.Null{}, nil
	}
	_, lIsFloat := l.(ir.Float)
	_, rIsFloat := r.(ir.Float)
	useFloat := lIsFloat || rIsFloat

	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return ir.Null{}, nil
		}
		result = lf / rf
		useFloat = true
	case "%":
		if int64(rf) == 0 {
			return ir.Null{}, nil
		}
		result = float64(int64(lf) % int64(rf))
	}

	if useFloat {
		return ir.Float(result), nil
	}
	return ir.Int(int64(result)), nil
}

func toFloat(v ir.Value) (float64, bool) {
	switch t := v.(type) {
	case ir.Int:
		return float64(t), true
	case ir.Float:
		return float64(t), true
	default:
		return 0, false
	}
}
