package runner

import (
	"fmt"

	"github.com/roach88/nysql/internal/objstore"
	"github.com/roach88/nysql/internal/refstore"
)

// Snapshot is an opaque deep copy of store + refs, captured at BEGIN and
// restored on ROLLBACK.
type Snapshot struct {
	store objstore.Snapshot
	refs  refstore.Snapshot
}

type storeSnapshotter interface {
	Snapshot() objstore.Snapshot
	Restore(objstore.Snapshot)
}

type refsSnapshotter interface {
	Snapshot() refstore.Snapshot
	Restore(refstore.Snapshot)
}

// ErrSnapshotUnsupported is returned when the configured store or ref
// namespace cannot produce a snapshot (e.g. a file-backed implementation
// without a cheap deep-copy operation).
type ErrSnapshotUnsupported struct {
	Component string
}

func (e ErrSnapshotUnsupported) Error() string {
	return fmt.Sprintf("runner: %s does not support snapshot/restore", e.Component)
}

// Snapshot captures the current store and refs contents.
func (r *Runner) Snapshot() (Snapshot, error) {
	ss, ok := r.store.(storeSnapshotter)
	if !ok {
		return Snapshot{}, ErrSnapshotUnsupported{Component: "store"}
	}
	rs, ok := r.refs.(refsSnapshotter)
	if !ok {
		return Snapshot{}, ErrSnapshotUnsupported{Component: "refs"}
	}
	return Snapshot{store: ss.Snapshot(), refs: rs.Snapshot()}, nil
}

// Restore replaces store and refs contents with a previously captured
// Snapshot, byte-identically.
func (r *Runner) Restore(snap Snapshot) error {
	ss, ok := r.store.(storeSnapshotter)
	if !ok {
		return ErrSnapshotUnsupported{Component: "store"}
	}
	rs, ok := r.refs.(refsSnapshotter)
	if !ok {
		return ErrSnapshotUnsupported{Component: "refs"}
	}
	ss.Restore(snap.store)
	rs.Restore(snap.refs)
	return nil
}
