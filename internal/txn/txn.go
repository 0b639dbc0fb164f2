// Package txn implements the transaction manager of spec.md §4.11: a
// stack of persistence snapshots plus an active flag. Nesting is
// supported by the stack shape even though the core today only drives a
// single level (BEGIN/COMMIT/ROLLBACK, no savepoints).
package txn

import (
	"errors"

	"github.com/roach88/nysql/internal/runner"
)

// ErrNoActiveTransaction is returned by Commit/Rollback when the stack is empty.
var ErrNoActiveTransaction = errors.New("txn: no active transaction")

// Manager is a stack of snapshots captured at BEGIN.
type Manager struct {
	stack []runner.Snapshot
}

// New creates an empty transaction manager.
func New() *Manager {
	return &Manager{}
}

// Begin pushes snapshot onto the stack.
func (m *Manager) Begin(snapshot runner.Snapshot) {
	m.stack = append(m.stack, snapshot)
}

// Active reports whether a transaction is currently open.
func (m *Manager) Active() bool {
	return len(m.stack) > 0
}

// Depth returns how many transactions are currently nested.
func (m *Manager) Depth() int {
	return len(m.stack)
}

// Commit pops the top snapshot, discarding it.
func (m *Manager) Commit() error {
	if !m.Active() {
		return ErrNoActiveTransaction
	}
	m.stack = m.stack[:len(m.stack)-1]
	return nil
}

// Rollback pops the top snapshot and returns it, for the caller to
// restore via the Runner.
func (m *Manager) Rollback() (runner.Snapshot, error) {
	if !m.Active() {
		return runner.Snapshot{}, ErrNoActiveTransaction
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}
