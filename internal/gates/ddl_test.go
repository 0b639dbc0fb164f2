package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/ir"
)

func TestAlterAddColumnBackfillsExistingRows(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")
	submit(t, r, "INSERT INTO users (id, name) VALUES (1, 'alice')")

	out := submit(t, r, "ALTER TABLE users ADD COLUMN age INT DEFAULT 0")
	requireNoError(t, out)
	firstOfType(t, out, "column_added")

	out = submit(t, r, "SELECT name, age FROM users")
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Int(0), rows[0].(ir.Object)["age"])
}

func TestAlterDropColumnRemovesFromExistingRows(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT, age INT)")
	submit(t, r, "INSERT INTO users (id, name, age) VALUES (1, 'alice', 30)")

	out := submit(t, r, "ALTER TABLE users DROP COLUMN age")
	requireNoError(t, out)
	firstOfType(t, out, "column_dropped")

	out = submit(t, r, "SELECT name FROM users")
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
	_, hasAge := rows[0].(ir.Object)["age"]
	assert.False(t, hasAge)
}

func TestAlterDropMissingColumn(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY)")
	out := submit(t, r, "ALTER TABLE users DROP COLUMN ghost")
	firstOfType(t, out, "error")
}

func TestRenameTablePreservesRowsAndIndexes(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, email TEXT)")
	submit(t, r, "INSERT INTO users (id, email) VALUES (1, 'a@x.com')")
	submit(t, r, "CREATE UNIQUE INDEX idx_email ON users (email)")

	out := submit(t, r, "ALTER TABLE users RENAME TO people")
	requireNoError(t, out)
	firstOfType(t, out, "table_renamed")

	out = submit(t, r, "SELECT email FROM people")
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("a@x.com"), rows[0].(ir.Object)["email"])

	// The index moved with the table: a duplicate insert on the renamed
	// table should still be rejected, and DROP INDEX should resolve to
	// "people", not the stale "users" name.
	out = submit(t, r, "INSERT INTO people (id, email) VALUES (2, 'a@x.com')")
	firstOfType(t, out, "error")

	out = submit(t, r, "DROP INDEX idx_email")
	requireNoError(t, out)
	dropped := firstOfType(t, out, "index_dropped")
	assert.Equal(t, ir.Text("people"), dropped.MustGet("table"))
}

func TestViewCreateAndDrop(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")

	out := submit(t, r, "CREATE VIEW all_users AS SELECT name FROM users")
	requireNoError(t, out)
	firstOfType(t, out, "view_created")

	out = submit(t, r, "DROP VIEW all_users")
	requireNoError(t, out)
	firstOfType(t, out, "view_dropped")

	out = submit(t, r, "DROP VIEW all_users")
	firstOfType(t, out, "error")

	out = submit(t, r, "DROP VIEW IF EXISTS all_users")
	requireNoError(t, out)
}

func TestTriggerCreateAndDrop(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY)")

	out := submit(t, r, "CREATE TRIGGER trg_check BEFORE INSERT ON users FOR EACH ROW SELECT 1")
	requireNoError(t, out)
	firstOfType(t, out, "trigger_created")

	out = submit(t, r, "DROP TRIGGER trg_check")
	requireNoError(t, out)
	firstOfType(t, out, "trigger_dropped")
}

func TestConstraintCreateAndDrop(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, age INT)")

	out := submit(t, r, "ALTER TABLE users ADD CONSTRAINT age_check CHECK (age >= 0)")
	requireNoError(t, out)
	firstOfType(t, out, "constraint_created")

	out = submit(t, r, "ALTER TABLE users DROP CONSTRAINT age_check")
	requireNoError(t, out)
	firstOfType(t, out, "constraint_dropped")
}

func TestDropTableCascadesState(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, email TEXT)")
	submit(t, r, "INSERT INTO users (id, email) VALUES (1, 'a@x.com')")
	submit(t, r, "CREATE UNIQUE INDEX idx_email ON users (email)")

	out := submit(t, r, "DROP TABLE users")
	requireNoError(t, out)
	firstOfType(t, out, "table_dropped")

	out = submit(t, r, "DROP TABLE users")
	firstOfType(t, out, "error")

	out = submit(t, r, "DROP TABLE IF EXISTS users")
	requireNoError(t, out)
}
