package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/objstore"
	"github.com/roach88/nysql/internal/refstore"
	"github.com/roach88/nysql/internal/runner"
)

func TestManagerBeginCommit(t *testing.T) {
	r := runner.New(objstore.NewMemStore(), refstore.NewMemRefs())
	snap, err := r.Snapshot()
	require.NoError(t, err)

	m := New()
	assert.False(t, m.Active())
	m.Begin(snap)
	assert.True(t, m.Active())

	require.NoError(t, m.Commit())
	assert.False(t, m.Active())
}

func TestManagerCommitWithoutBeginErrors(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Commit(), ErrNoActiveTransaction)
}

func TestManagerRollbackReturnsSnapshot(t *testing.T) {
	r := runner.New(objstore.NewMemStore(), refstore.NewMemRefs())
	snap, err := r.Snapshot()
	require.NoError(t, err)

	m := New()
	m.Begin(snap)
	got, err := m.Rollback()
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.False(t, m.Active())
}

func TestManagerRollbackWithoutBeginErrors(t *testing.T) {
	m := New()
	_, err := m.Rollback()
	assert.ErrorIs(t, err, ErrNoActiveTransaction)
}

func TestManagerNestedDepth(t *testing.T) {
	r := runner.New(objstore.NewMemStore(), refstore.NewMemRefs())
	s1, _ := r.Snapshot()
	s2, _ := r.Snapshot()

	m := New()
	m.Begin(s1)
	m.Begin(s2)
	assert.Equal(t, 2, m.Depth())

	require.NoError(t, m.Commit())
	assert.Equal(t, 1, m.Depth())
}
