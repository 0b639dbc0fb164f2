// Package objstore implements the content store described in spec.md
// §4.2: every value is written once, addressed by the SHA-256 hex digest
// of its canonical serialization, and never deleted.
package objstore

import (
	"fmt"
	"sync"

	"github.com/roach88/nysql/internal/ir"
)

// ErrObjectNotFound is returned by Get when the hash is not present in
// the store (spec.md §7: ResolutionError — referenced blob missing is
// corruption at the ref layer, but a direct Get of an unknown hash is a
// plain not-found).
type ErrObjectNotFound struct {
	Hash string
}

func (e ErrObjectNotFound) Error() string {
	return fmt.Sprintf("object not found: %s", e.Hash)
}

// Store is the content-addressed blob store contract. Put is idempotent:
// storing the same value twice returns the same hash and does not create
// a second copy.
type Store interface {
	Put(v ir.Value) (hash string, err error)
	Get(hash string) (ir.Value, error)
	Has(hash string) (bool, error)
}

// MemStore is an in-memory content store backed by a hash→canonical-bytes
// map. Safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore creates an empty in-memory content store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Put canonicalizes v, hashes the result, stores it if not already
// present, and returns the hash. Idempotent.
func (m *MemStore) Put(v ir.Value) (string, error) {
	canon, err := ir.Canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("objstore: put: %w", err)
	}
	hash := ir.HashBytes(canon)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[hash]; !exists {
		m.data[hash] = canon
	}
	return hash, nil
}

// Get retrieves and parses the value stored under hash.
func (m *MemStore) Get(hash string) (ir.Value, error) {
	m.mu.RLock()
	canon, ok := m.data[hash]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound{Hash: hash}
	}
	return ir.ParseCanonical(canon)
}

// Has reports whether hash is present in the store.
func (m *MemStore) Has(hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok, nil
}

// snapshot returns a deep copy of the store's contents, used by
// internal/runner to implement transaction snapshot/restore.
func (m *MemStore) snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// restore replaces the store's contents with snapshot byte-identically.
func (m *MemStore) restore(snapshot map[string][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make(map[string][]byte, len(snapshot))
	for k, v := range snapshot {
		cp := make([]byte, len(v))
		copy(cp, v)
		data[k] = cp
	}
	m.data = data
}

// Snapshot captures the store's current contents for use by
// internal/runner's Snapshot/Restore. It is exported as an opaque value;
// callers should treat it as immutable.
type Snapshot struct {
	objects map[string][]byte
}

// Snapshot returns an opaque deep copy of the store.
func (m *MemStore) Snapshot() Snapshot {
	return Snapshot{objects: m.snapshot()}
}

// Restore replaces the store's contents with a previously captured
// Snapshot, byte-identically.
func (m *MemStore) Restore(s Snapshot) {
	m.restore(s.objects)
}
