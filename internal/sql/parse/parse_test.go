package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

func parseSQL(t *testing.T, sql string) event.Event {
	t.Helper()
	cause := event.New("parse_statement", map[string]ir.Value{"sql": ir.Text(sql)})
	out := dispatch(cause)
	require.Len(t, out, 1)
	return out[0]
}

func TestDispatchCreateTable(t *testing.T) {
	e := parseSQL(t, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL)")
	require.Equal(t, "create_table_execute", e.Type)
	cols := e.MustGet("columns").(ir.Array)
	require.Len(t, cols, 2)
	first := cols[0].(ir.Object)
	assert.Equal(t, ir.Text("id"), first["name"])
	assert.Equal(t, ir.Bool(true), first["primaryKey"])
}

func TestDispatchDropTableIfExists(t *testing.T) {
	e := parseSQL(t, "DROP TABLE IF EXISTS users")
	require.Equal(t, "drop_table_execute", e.Type)
	assert.Equal(t, ir.Bool(true), e.MustGet("ifExists"))
}

func TestDispatchInsertValues(t *testing.T) {
	e := parseSQL(t, "INSERT INTO users (id, name) VALUES (1, 'alice')")
	require.Equal(t, "insert_execute", e.Type)
	rows := e.MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
	row := rows[0].(ir.Object)
	assert.Equal(t, ir.Int(1), row["id"])
	assert.Equal(t, ir.Text("alice"), row["name"])
}

func TestDispatchUpdateWithWhere(t *testing.T) {
	e := parseSQL(t, "UPDATE users SET name = 'bob' WHERE id = 1")
	require.Equal(t, "update_execute", e.Type)
	_, hasWhere := e.Get("where")
	assert.True(t, hasWhere)
}

func TestDispatchDeleteWithWhere(t *testing.T) {
	e := parseSQL(t, "DELETE FROM users WHERE id = 1")
	require.Equal(t, "delete_execute", e.Type)
}

func TestDispatchSelectSimpleProducesQueryPlan(t *testing.T) {
	e := parseSQL(t, "SELECT id, name FROM users WHERE id = 1 ORDER BY id LIMIT 10")
	require.Equal(t, "query_plan", e.Type)
	pipeline := e.MustGet("pipeline").(ir.Array)
	assert.True(t, len(pipeline) >= 4)
}

func TestSelectPlanExecutesEndToEnd(t *testing.T) {
	e := parseSQL(t, "SELECT name FROM users WHERE id = 2")
	require.Equal(t, "query_plan", e.Type)
	pipeline := e.MustGet("pipeline").(ir.Array)

	resolved := state.NewResolved()
	resolved.SetPattern("db/users/rows/", []state.NamedEntry{
		{Name: "db/users/rows/r0", Value: ir.Object{"id": ir.Int(1), "name": ir.Text("a")}},
		{Name: "db/users/rows/r1", Value: ir.Object{"id": ir.Int(2), "name": ir.Text("b")}},
	})

	rows, err := exec.Execute(pipeline, &exec.Context{Resolved: resolved})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("b"), rows[0]["name"])
}

func TestDispatchSelectAggregateGroupBy(t *testing.T) {
	e := parseSQL(t, "SELECT category, SUM(amount) AS total FROM orders GROUP BY category HAVING SUM(amount) > 10")
	require.Equal(t, "query_plan", e.Type)
}

func TestDispatchBeginCommitRollback(t *testing.T) {
	assert.Equal(t, "transaction_begin", parseSQL(t, "BEGIN TRANSACTION").Type)
	assert.Equal(t, "transaction_commit", parseSQL(t, "COMMIT").Type)
	assert.Equal(t, "transaction_rollback", parseSQL(t, "ROLLBACK").Type)
}

func TestDispatchExplain(t *testing.T) {
	e := parseSQL(t, "EXPLAIN SELECT * FROM users")
	assert.Equal(t, "explain", e.Type)
}

func TestDispatchUnrecognizedStatementErrors(t *testing.T) {
	e := parseSQL(t, "FROB users")
	assert.Equal(t, "error", e.Type)
}

func TestDispatchCreateIndex(t *testing.T) {
	e := parseSQL(t, "CREATE UNIQUE INDEX idx_users_id ON users (id)")
	require.Equal(t, "index_create_execute", e.Type)
	assert.Equal(t, ir.Bool(true), e.MustGet("unique"))
}

func TestDispatchRenameTable(t *testing.T) {
	e := parseSQL(t, "ALTER TABLE users RENAME TO people")
	require.Equal(t, "rename_table_execute", e.Type)
	assert.Equal(t, ir.Text("people"), e.MustGet("to"))
}

func TestDispatchAlterAddColumn(t *testing.T) {
	e := parseSQL(t, "ALTER TABLE users ADD COLUMN age INT")
	require.Equal(t, "alter_table_add_column_execute", e.Type)
}

func TestDispatchWithRecursiveCTE(t *testing.T) {
	e := parseSQL(t, "WITH RECURSIVE counter(n) AS (SELECT 1 AS n UNION ALL SELECT n + 1 FROM counter WHERE n < 4) SELECT n FROM counter")
	require.Equal(t, "query_plan", e.Type)

	pipeline := e.MustGet("pipeline").(ir.Array)
	rows, err := exec.Execute(pipeline, &exec.Context{Resolved: state.NewResolved(), CTEs: map[string]exec.RowSet{}})
	require.NoError(t, err)
	var ns []int64
	for _, r := range rows {
		ns = append(ns, int64(r["n"].(ir.Int)))
	}
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, ns)
}
