package sqltest

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
)

// toCanonical converts a Result into a plain ir.Value tree, so its
// byte-exact snapshot goes through the same canonicalization every other
// part of this module uses, rather than encoding/json's struct tags
// (which don't know how to render the ir.Value sum type meaningfully).
func (r *Result) toCanonical() ir.Value {
	statements := make(ir.Array, len(r.Statements))
	for i, s := range r.Statements {
		events := make(ir.Array, len(s.Events))
		for j, e := range s.Events {
			events[j] = eventToCanonical(e)
		}
		statements[i] = ir.Object{
			"sql":    ir.Text(s.SQL),
			"events": events,
		}
	}
	return ir.Object{
		"scenario_name": ir.Text(r.ScenarioName),
		"statements":    statements,
	}
}

func eventToCanonical(e event.Event) ir.Value {
	data := ir.Object{}
	for k, v := range e.Data {
		data[k] = v
	}
	return ir.Object{"type": ir.Text(e.Type), "data": data}
}

// RunWithGolden executes s and compares its canonicalized trace against
// testdata/golden/<name>.golden, in the style of RunWithGolden from
// internal/harness. Regenerate golden files with `go test ./internal/sqltest -update`.
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return err
	}

	snapshot, err := ir.Canonicalize(result.toCanonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, snapshot)
	return nil
}
