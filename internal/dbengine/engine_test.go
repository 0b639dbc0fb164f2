package dbengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/ir"
)

func TestOpenInMemoryAndSubmitSQL(t *testing.T) {
	eng, err := Open(Config{})
	require.NoError(t, err)

	out := eng.SubmitSQL("CREATE TABLE users (id INT PRIMARY KEY, name TEXT)")
	require.Len(t, out, 1)
	assert.Equal(t, "table_created", out[0].Type)

	out = eng.SubmitSQL("INSERT INTO users (id, name) VALUES (1, 'alice')")
	require.Len(t, out, 1)
	assert.Equal(t, "row_inserted", out[0].Type)

	out = eng.SubmitSQL("SELECT name FROM users")
	require.Len(t, out, 1)
	require.Equal(t, "query_result", out[0].Type)
	rows, _ := out[0].MustGet("rows").(ir.Array)
	require.Len(t, rows, 1)
}

func TestSubmitSQLReportsParseErrors(t *testing.T) {
	eng, err := Open(Config{})
	require.NoError(t, err)

	out := eng.SubmitSQL("NOT VALID SQL")
	require.Len(t, out, 1)
	assert.Equal(t, "error", out[0].Type)
}

func TestGetSchemaListsTablesSortedByName(t *testing.T) {
	eng, err := Open(Config{})
	require.NoError(t, err)

	require.Len(t, eng.SubmitSQL("CREATE TABLE zebras (id INT PRIMARY KEY, name TEXT)"), 1)
	require.Len(t, eng.SubmitSQL("CREATE TABLE apples (id INT PRIMARY KEY, color TEXT)"), 1)

	schema, err := eng.GetSchema("")
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "apples", schema[0].Table)
	assert.Equal(t, "zebras", schema[1].Table)
	assert.Len(t, schema[0].Columns, 2)
}

func TestGetSchemaFiltersByPrefix(t *testing.T) {
	eng, err := Open(Config{})
	require.NoError(t, err)

	require.Len(t, eng.SubmitSQL("CREATE TABLE users (id INT PRIMARY KEY)"), 1)
	require.Len(t, eng.SubmitSQL("CREATE TABLE user_roles (id INT PRIMARY KEY)"), 1)
	require.Len(t, eng.SubmitSQL("CREATE TABLE widgets (id INT PRIMARY KEY)"), 1)

	schema, err := eng.GetSchema("user")
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "user_roles", schema[0].Table)
	assert.Equal(t, "users", schema[1].Table)
}

func TestOpenFileBackedEngine(t *testing.T) {
	eng, err := Open(Config{DataDir: t.TempDir()})
	require.NoError(t, err)

	out := eng.SubmitSQL("CREATE TABLE users (id INT PRIMARY KEY)")
	require.Len(t, out, 1)
	assert.Equal(t, "table_created", out[0].Type)
}
