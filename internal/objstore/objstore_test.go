package objstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/ir"
)

func TestMemStorePutGetRoundTrip(t *testing.T) {
	s := NewMemStore()
	v := ir.Object{"name": ir.Text("alice"), "age": ir.Int(30)}

	hash, err := s.Put(v)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.True(t, ir.Equal(v, got))
}

func TestMemStorePutIdempotent(t *testing.T) {
	s := NewMemStore()
	v := ir.Text("hello")

	h1, err := s.Put(v)
	require.NoError(t, err)
	h2, err := s.Put(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestMemStoreHas(t *testing.T) {
	s := NewMemStore()
	hash, err := s.Put(ir.Int(42))
	require.NoError(t, err)

	ok, err := s.Has(hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has("deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemStoreGetMissing(t *testing.T) {
	s := NewMemStore()
	_, err := s.Get("nonexistent")
	require.Error(t, err)
	var notFound ErrObjectNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestMemStoreSnapshotRestore(t *testing.T) {
	s := NewMemStore()
	h1, err := s.Put(ir.Int(1))
	require.NoError(t, err)

	snap := s.Snapshot()

	_, err = s.Put(ir.Int(2))
	require.NoError(t, err)

	s.Restore(snap)

	ok, err := s.Has(h1)
	require.NoError(t, err)
	assert.True(t, ok)

	has2, err := s.Has(ir.MustHash(ir.Int(2)))
	require.NoError(t, err)
	assert.False(t, has2)
}

func TestFileStorePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	v := ir.Array{ir.Int(1), ir.Text("x"), ir.Bool(true)}
	hash, err := s.Put(v)
	require.NoError(t, err)

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.True(t, ir.Equal(v, got))

	ok, err := s.Has(hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStoreGetMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Get("0000")
	require.Error(t, err)
}

func TestFileAndMemStoreAgreeOnHash(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	ms := NewMemStore()

	v := ir.Object{"a": ir.Int(1)}
	h1, err := fs.Put(v)
	require.NoError(t, err)
	h2, err := ms.Put(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
