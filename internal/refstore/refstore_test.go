package refstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemRefsSetGet(t *testing.T) {
	r := NewMemRefs()
	r.Set("db/tables/users/schema", "abc123")

	hash, ok := r.Get("db/tables/users/schema")
	assert.True(t, ok)
	assert.Equal(t, "abc123", hash)
}

func TestMemRefsGetAbsent(t *testing.T) {
	r := NewMemRefs()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestMemRefsSetIdempotent(t *testing.T) {
	r := NewMemRefs()
	r.Set("n", "h1")
	r.Set("n", "h1")
	hash, ok := r.Get("n")
	assert.True(t, ok)
	assert.Equal(t, "h1", hash)
}

func TestMemRefsDelete(t *testing.T) {
	r := NewMemRefs()
	r.Set("n", "h")
	r.Delete("n")
	_, ok := r.Get("n")
	assert.False(t, ok)
}

func TestMemRefsListPrefixSorted(t *testing.T) {
	r := NewMemRefs()
	r.Set("db/tables/users/rows/2", "h2")
	r.Set("db/tables/users/rows/1", "h1")
	r.Set("db/tables/orders/rows/1", "h3")

	names := r.List("db/tables/users/rows/")
	assert.Equal(t, []string{"db/tables/users/rows/1", "db/tables/users/rows/2"}, names)
}

func TestMemRefsListPartialSegmentPrefix(t *testing.T) {
	r := NewMemRefs()
	r.Set("db/tables/users/schema", "h1")
	r.Set("db/tables/user_settings/schema", "h2")

	// "user" is a partial segment of both "users" and "user_settings";
	// prefix matching must be purely textual, not path-segment aware.
	names := r.List("db/tables/user")
	assert.Equal(t, []string{"db/tables/user_settings/schema", "db/tables/users/schema"}, names)
}

func TestMemRefsSnapshotRestore(t *testing.T) {
	r := NewMemRefs()
	r.Set("a", "1")
	snap := r.Snapshot()

	r.Set("b", "2")
	r.Delete("a")

	r.Restore(snap)

	_, aOK := r.Get("a")
	assert.True(t, aOK)
	_, bOK := r.Get("b")
	assert.False(t, bOK)
}

func TestFileRefsSetGetDelete(t *testing.T) {
	dir := t.TempDir()
	r, err := NewFileRefs(dir)
	assert.NoError(t, err)

	r.Set("db/tables/t/schema", "hash1")
	hash, ok := r.Get("db/tables/t/schema")
	assert.True(t, ok)
	assert.Equal(t, "hash1", hash)

	r.Delete("db/tables/t/schema")
	_, ok = r.Get("db/tables/t/schema")
	assert.False(t, ok)
}

func TestFileRefsList(t *testing.T) {
	dir := t.TempDir()
	r, err := NewFileRefs(dir)
	assert.NoError(t, err)

	r.Set("db/tables/a/rows/1", "h1")
	r.Set("db/tables/a/rows/2", "h2")
	r.Set("db/tables/b/rows/1", "h3")

	names := r.List("db/tables/a/rows/")
	assert.Equal(t, []string{"db/tables/a/rows/1", "db/tables/a/rows/2"}, names)
}
