package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/ir"
)

func TestSelectWithWhereAndOrderBy(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT, age INT)")
	submit(t, r, "INSERT INTO users (id, name, age) VALUES (1, 'alice', 30), (2, 'bob', 25), (3, 'carol', 40)")

	out := submit(t, r, "SELECT name FROM users WHERE age > 26 ORDER BY age")
	requireNoError(t, out)
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 2)
	assert.Equal(t, ir.Text("alice"), rows[0].(ir.Object)["name"])
	assert.Equal(t, ir.Text("carol"), rows[1].(ir.Object)["name"])
}

func TestSelectWithInSubquery(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE orders (id INT PRIMARY KEY, user_id INT)")
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")
	submit(t, r, "INSERT INTO users (id, name) VALUES (1, 'alice'), (2, 'bob')")
	submit(t, r, "INSERT INTO orders (id, user_id) VALUES (100, 1)")

	out := submit(t, r, "SELECT name FROM users WHERE id IN (SELECT user_id FROM orders)")
	requireNoError(t, out)
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Text("alice"), rows[0].(ir.Object)["name"])
}

func TestSelectWithExistsSubquery(t *testing.T) {
	// EXISTS subqueries here are non-correlated: the captured SQL text has
	// no way to reference the outer row, so the subquery runs exactly
	// once and its truth value applies uniformly to every outer row.
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE orders (id INT PRIMARY KEY, user_id INT)")
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")
	submit(t, r, "INSERT INTO users (id, name) VALUES (1, 'alice'), (2, 'bob')")
	submit(t, r, "INSERT INTO orders (id, user_id) VALUES (100, 2)")

	out := submit(t, r, "SELECT name FROM users WHERE EXISTS (SELECT 1 FROM orders WHERE user_id = 2)")
	requireNoError(t, out)
	result := firstOfType(t, out, "query_result")
	rows, _ := result.MustGet("rows").(ir.Array)
	require.Len(t, rows, 2)

	out = submit(t, r, "SELECT name FROM users WHERE EXISTS (SELECT 1 FROM orders WHERE user_id = 999)")
	requireNoError(t, out)
	result = firstOfType(t, out, "query_result")
	rows, _ = result.MustGet("rows").(ir.Array)
	assert.Len(t, rows, 0)
}
