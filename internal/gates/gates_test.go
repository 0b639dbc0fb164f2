package gates

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/objstore"
	"github.com/roach88/nysql/internal/refstore"
	"github.com/roach88/nysql/internal/runner"
)

// newTestRunner builds a Runner with every gate registered over an
// in-memory store and ref namespace.
func newTestRunner(t *testing.T) *runner.Runner {
	t.Helper()
	r := runner.New(objstore.NewMemStore(), refstore.NewMemRefs())
	require.NoError(t, RegisterAll(r))
	return r
}

// submit clears any pending events, emits a parse_statement for sql, and
// returns whatever landed in the pending list (the terminal events no
// gate claims: query_result, row_inserted, error, and so on).
func submit(t *testing.T, r *runner.Runner, sql string) []event.Event {
	t.Helper()
	r.Stream().ClearPending()
	r.Emit(event.New("parse_statement", map[string]ir.Value{"sql": ir.Text(sql)}))
	return r.Stream().ClearPending()
}

// firstOfType returns the first pending event of the given type, failing
// the test if none is found.
func firstOfType(t *testing.T, events []event.Event, eventType string) event.Event {
	t.Helper()
	for _, e := range events {
		if e.Type == eventType {
			return e
		}
	}
	t.Fatalf("no %q event among %d pending events: %+v", eventType, len(events), events)
	return event.Event{}
}

func requireNoError(t *testing.T, events []event.Event) {
	t.Helper()
	for _, e := range events {
		if e.Type == "error" {
			msg, _ := e.Get("message")
			t.Fatalf("unexpected error event: %v", msg)
		}
	}
}
