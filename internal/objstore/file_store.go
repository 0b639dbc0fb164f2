package objstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/nysql/internal/ir"
)

// FileStore is a file-backed content store. Blobs are written under
// store/<hash[0:2]>/<hash[2:]> relative to Dir, per spec.md §6's persisted
// layout. Writes are atomic: the blob is written to a temp file in the
// same directory and renamed into place, so a crash mid-write never
// leaves a partial object visible under its final name.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-backed content store rooted at dir. The
// directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("objstore: create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) pathFor(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(f.dir, hash)
	}
	return filepath.Join(f.dir, hash[:2], hash[2:])
}

// Put canonicalizes v, hashes it, and writes the canonical bytes to disk
// if not already present. Idempotent.
func (f *FileStore) Put(v ir.Value) (string, error) {
	canon, err := ir.Canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("objstore: put: %w", err)
	}
	hash := ir.HashBytes(canon)

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.pathFor(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil // already present; content-addressed, so identical
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("objstore: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "obj-*.tmp")
	if err != nil {
		return "", fmt.Errorf("objstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(canon); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("objstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("objstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("objstore: rename into place: %w", err)
	}

	return hash, nil
}

// Get reads and parses the blob stored under hash.
func (f *FileStore) Get(hash string) (ir.Value, error) {
	data, err := os.ReadFile(f.pathFor(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound{Hash: hash}
		}
		return nil, fmt.Errorf("objstore: read %s: %w", hash, err)
	}
	return ir.ParseCanonical(data)
}

// Has reports whether a blob exists under hash.
func (f *FileStore) Has(hash string) (bool, error) {
	_, err := os.Stat(f.pathFor(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("objstore: stat %s: %w", hash, err)
}
