package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
)

func TestFormatEventAcknowledgements(t *testing.T) {
	cases := []struct {
		event event.Event
		want  string
	}{
		{event.New("table_created", map[string]ir.Value{"table": ir.Text("users")}), `Table "users" created.`},
		{event.New("table_dropped", map[string]ir.Value{"table": ir.Text("users")}), `Table "users" dropped.`},
		{event.New("row_updated", map[string]ir.Value{"ids": ir.Array{ir.Text("1"), ir.Text("2")}}), "2 rows updated."},
		{event.New("row_deleted", map[string]ir.Value{"ids": ir.Array{ir.Text("1")}}), "1 rows deleted."},
		{event.New("index_created", map[string]ir.Value{"name": ir.Text("idx_users_name")}), `Index "idx_users_name" created.`},
		{event.New("transaction_started", nil), "Transaction started."},
		{event.New("transaction_committed", nil), "Transaction committed."},
		{event.New("transaction_rolled_back", nil), "Transaction rolled back."},
		{event.Error("boom", event.New("insert_execute", nil)), "Error: boom"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, formatEvent(tc.event))
	}
}

func TestFormatEventRowInsertedWithConflict(t *testing.T) {
	e := event.New("row_inserted", map[string]ir.Value{"conflict": ir.Text("skipped")})
	assert.Equal(t, "Row insert skipped (conflict).", formatEvent(e))
}

func TestFormatEventQueryResult(t *testing.T) {
	e := event.New("query_result", map[string]ir.Value{
		"rows": ir.Array{
			ir.Object{"name": ir.Text("alice"), "age": ir.Int(30)},
		},
	})
	out := formatEvent(e)
	assert.Contains(t, out, "age\tname")
	assert.Contains(t, out, "30\talice")
}

func TestFormatEventEmptyQueryResult(t *testing.T) {
	e := event.New("query_result", map[string]ir.Value{"rows": ir.Array{}})
	assert.Equal(t, "0 rows.", formatEvent(e))
}
