package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	v := Object{"name": Text("widget"), "qty": Int(3)}

	h1, err := Hash(v)
	require.NoError(t, err)
	h2, err := Hash(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
}

func TestHashEqualValuesShareHash(t *testing.T) {
	a := Object{"x": Int(1), "y": Text("a")}
	b := Object{"y": Text("a"), "x": Int(1)} // different construction order

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHashDifferentValuesDiffer(t *testing.T) {
	ha := MustHash(Int(1))
	hb := MustHash(Int(2))
	assert.NotEqual(t, ha, hb)
}

func TestHashBytesMatchesHash(t *testing.T) {
	v := Text("hello")
	canon, err := Canonicalize(v)
	require.NoError(t, err)

	h, err := Hash(v)
	require.NoError(t, err)
	assert.Equal(t, h, HashBytes(canon))
}
