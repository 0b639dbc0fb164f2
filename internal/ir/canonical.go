package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnserializableType is returned by Canonicalize when given a value
// outside the accepted set (null, boolean, integer, float, string,
// sequence, mapping).
type ErrUnserializableType struct {
	Type any
}

func (e ErrUnserializableType) Error() string {
	return fmt.Sprintf("canonicalize: unserializable type %T", e.Type)
}

// Canonicalize produces the deterministic byte-exact serialization of a
// value, per spec.md §4.1: primitives in a fixed textual form, integers in
// base-10 with no leading zeros, sequences bracket-and-comma-joined in
// order, and mappings with keys sorted lexicographically (by UTF-16 code
// unit) and joined as `key:value` pairs. Same value in ⇒ same bytes out,
// across runs and implementations that follow the same rules.
func Canonicalize(v Value) ([]byte, error) {
	return canonicalize(v)
}

func canonicalize(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		return canonicalizeFloat(float64(val))
	case Text:
		return canonicalizeString(string(val))
	case Array:
		return canonicalizeArray(val)
	case Object:
		return canonicalizeObject(val)
	default:
		return nil, ErrUnserializableType{Type: v}
	}
}

// canonicalizeFloat renders a float in a fixed decimal form: the shortest
// round-tripping representation, always containing a decimal point so it
// is never confused with an integer, never exponential notation.
func canonicalizeFloat(f float64) ([]byte, error) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return []byte(s), nil
}

// canonicalizeString renders a string in quoted form with NFC
// normalization and fixed escape rules: control characters, backslash and
// quote are escaped; everything else, including U+2028/U+2029, passes
// through unescaped.
func canonicalizeString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("canonicalize string: %w", err)
	}

	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators converts the   and   escapes produced by
// encoding/json back into literal characters, since the canonical form
// leaves them unescaped. It leaves an escaped backslash followed by the
// literal text "u2028"/"u2029" (i.e. \\u2028) untouched.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	var out []byte
	i := 0
	for i < len(data) {
		if i+6 <= len(data) && data[i] == '\\' && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			if out == nil {
				for j := i - 1; j >= 0 && data[j] == '\\'; j-- {
					backslashes++
				}
			} else {
				for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
					backslashes++
				}
			}
			if backslashes%2 == 0 {
				if out == nil {
					out = make([]byte, 0, len(data))
					out = append(out, data[:i]...)
				}
				if data[i+5] == '8' {
					out = append(out, []byte{0xe2, 0x80, 0xa8}...)
				} else {
					out = append(out, []byte{0xe2, 0x80, 0xa9}...)
				}
				i += 6
				continue
			}
		}
		if out != nil {
			out = append(out, data[i])
		}
		i++
	}
	if out == nil {
		return data
	}
	return out
}

func canonicalizeArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := canonicalize(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// ParseCanonical parses bytes produced by Canonicalize back into a Value.
// Canonical output is a restricted subset of JSON, so the standard
// decoder (with UseNumber, to distinguish Int from Float) handles it.
func ParseCanonical(data []byte) (Value, error) {
	return unmarshalValueJSON(data)
}

func canonicalizeObject(obj Object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	keys := obj.SortedKeys()
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := canonicalizeString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := canonicalize(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
