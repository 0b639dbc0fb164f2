package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/runner"
	"github.com/roach88/nysql/internal/txn"
)

// TransactionBeginGate implements transaction_begin. It needs direct
// access to the Runner's snapshot capability, which ordinary state gates
// don't have, so it is a PlainGate.
type TransactionBeginGate struct {
	Manager *txn.Manager
}

func (TransactionBeginGate) Signature() string { return "transaction_begin" }

func (g TransactionBeginGate) Handle(e event.Event, r *runner.Runner) {
	if g.Manager.Active() {
		r.Emit(event.Error("transaction_begin: a transaction is already active", e))
		return
	}
	snap, err := r.Snapshot()
	if err != nil {
		r.Emit(event.Error(err.Error(), e))
		return
	}
	g.Manager.Begin(snap)
	r.Emit(event.New("transaction_started", nil))
}

// TransactionCommitGate implements transaction_commit.
type TransactionCommitGate struct {
	Manager *txn.Manager
}

func (TransactionCommitGate) Signature() string { return "transaction_commit" }

func (g TransactionCommitGate) Handle(e event.Event, r *runner.Runner) {
	if err := g.Manager.Commit(); err != nil {
		r.Emit(event.Error(err.Error(), e))
		return
	}
	r.Emit(event.New("transaction_committed", nil))
}

// TransactionRollbackGate implements transaction_rollback.
type TransactionRollbackGate struct {
	Manager *txn.Manager
}

func (TransactionRollbackGate) Signature() string { return "transaction_rollback" }

func (g TransactionRollbackGate) Handle(e event.Event, r *runner.Runner) {
	snap, err := g.Manager.Rollback()
	if err != nil {
		r.Emit(event.Error(err.Error(), e))
		return
	}
	if err := r.Restore(snap); err != nil {
		r.Emit(event.Error(err.Error(), e))
		return
	}
	r.Emit(event.New("transaction_rolled_back", nil))
}
