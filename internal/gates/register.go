package gates

import (
	"github.com/roach88/nysql/internal/runner"
	"github.com/roach88/nysql/internal/sql/parse"
	"github.com/roach88/nysql/internal/txn"
)

// RegisterAll installs the dispatch gate and every execute/query/transaction
// gate onto r, wiring a single shared transaction manager across the three
// transaction control gates.
func RegisterAll(r *runner.Runner) error {
	manager := txn.New()

	gates := []any{
		parse.NewDispatchGate(),
		NewExplainGate(),

		CreateTableGate{},
		CreateTableAsSelectGate{},
		DropTableGate{},
		AlterAddColumnGate{},
		AlterDropColumnGate{},
		RenameTableGate{},

		InsertGate{},
		InsertSelectGate{},
		UpdateGate{},
		DeleteGate{},

		IndexCreateGate{},
		IndexDropGate{},
		IndexDropFinishGate{},

		ViewCreateGate{},
		ViewDropGate{},
		TriggerCreateGate{},
		TriggerDropGate{},
		ConstraintCreateGate{},
		ConstraintDropGate{},

		QueryPlanGate{},

		TransactionBeginGate{Manager: manager},
		TransactionCommitGate{Manager: manager},
		TransactionRollbackGate{Manager: manager},
	}

	for _, g := range gates {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}
