// Package ir defines the canonical value model shared by the content
// store, the row pipeline, and the expression evaluator.
package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the value types accepted by the
// canonicalizer: null, boolean, integer, float, string, ordered sequence,
// and keyed mapping. Only the types in this file implement it.
type Value interface {
	sqlValue() // seals the interface to this package
}

// Null represents the SQL NULL value.
type Null struct{}

func (Null) sqlValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) sqlValue() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) sqlValue() {}

// Float represents a floating point value.
type Float float64

func (Float) sqlValue() {}

// Text represents a string value.
type Text string

func (Text) sqlValue() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) sqlValue() {}

// Object represents a keyed mapping of string to Value.
type Object map[string]Value

func (Object) sqlValue() {}

// NewObject builds an Object from alternating key/value pairs, useful for
// constructing literals inline: NewObject("id", Int(1), "name", Text("a")).
func NewObject(pairs ...any) Object {
	obj := make(Object, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("NewObject: key at index %d is not a string", i))
		}
		val, ok := pairs[i+1].(Value)
		if !ok {
			panic(fmt.Sprintf("NewObject: value at index %d is not an ir.Value", i+1))
		}
		obj[key] = val
	}
	return obj
}

// SortedKeys returns the object's keys ordered by UTF-16 code unit, matching
// the ordering Canonicalize uses for keyed mappings.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders strings by UTF-16 code unit, which is what the
// canonical form's key ordering rule specifies.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// FromGo converts an ordinary Go value (as produced by encoding/json
// unmarshaling into `any`, or assembled by hand) into a Value. int, int64,
// and json.Number values without a fractional part become Int; float64
// always becomes Float, even when it holds a whole number.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("FromGo: %q is not a number: %w", val, err)
		}
		return Float(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("FromGo: array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("FromGo: object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("FromGo: unsupported type %T", v)
	}
}

// ToGo converts a Value back into a plain Go value (nil, bool, int64,
// float64, string, []any, map[string]any) suitable for JSON marshaling
// through the standard library.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Text:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for Object using sorted keys so
// that ordinary (non-canonical) JSON output, e.g. for API responses, is
// still deterministic.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := marshalValueJSON(o[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValueJSON(v)
		if err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		(*o)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (a *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = make(Array, len(raw))
	for i, v := range raw {
		val, err := unmarshalValueJSON(v)
		if err != nil {
			return fmt.Errorf("array index %d: %w", i, err)
		}
		(*a)[i] = val
	}
	return nil
}

func marshalValueJSON(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Text:
		return json.Marshal(string(val))
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValueJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("marshalValueJSON: unknown Value type %T", v)
	}
}

func unmarshalValueJSON(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return Null{}, nil
	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		s := string(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("unmarshalValueJSON: %q is not numeric: %w", s, err)
		}
		return Float(f), nil
	}
}

// Equal reports whether two values are structurally equal (same type and
// same content, with Array/Object compared element-wise; Int and Float
// are compared numerically against each other, and nil equals Null). It is the value
// equivalence predicate used by the hash-addressing property get(put(v)) ==
// v and by row operators such as DISTINCT and set operations.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil, Null:
		_, ok := b.(Null)
		return ok || b == nil
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return Float(av) == bv
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Float:
			return av == bv
		case Int:
			return av == Float(bv)
		}
		return false
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, exists := bv[k]
			if !exists || !Equal(v, ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsNull reports whether v is absent or the Null value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Less implements the total ordering across value types used by ORDER BY
// (spec.md §9 open question (c)): Null < Bool < numeric < Text < Array <
// Object, with same-type values compared the obvious way and Int/Float
// compared numerically against each other. Arrays compare element by
// element, then by length; Objects compare by key count only.
func Less(a, b Value) bool {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra < rb
	}
	switch av := a.(type) {
	case Bool:
		bv := b.(Bool)
		return !bool(av) && bool(bv)
	case Int:
		switch bv := b.(type) {
		case Int:
			return av < bv
		case Float:
			return Float(av) < bv
		}
	case Float:
		switch bv := b.(type) {
		case Float:
			return av < bv
		case Int:
			return av < Float(bv)
		}
	case Text:
		return av < b.(Text)
	case Array:
		bv := b.(Array)
		n := min(len(av), len(bv))
		for i := 0; i < n; i++ {
			if Equal(av[i], bv[i]) {
				continue
			}
			return Less(av[i], bv[i])
		}
		return len(av) < len(bv)
	case Object:
		bv := b.(Object)
		return len(av) < len(bv)
	}
	return false
}

// typeRank orders the value kinds for cross-type comparison.
func typeRank(v Value) int {
	switch v.(type) {
	case nil, Null:
		return 0
	case Bool:
		return 1
	case Int, Float:
		return 2
	case Text:
		return 3
	case Array:
		return 4
	case Object:
		return 5
	default:
		return 6
	}
}
