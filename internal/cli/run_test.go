package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sql")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunCommandExecutesScript(t *testing.T) {
	path := writeScript(t, `
		CREATE TABLE users (id INT PRIMARY KEY, name TEXT);
		INSERT INTO users (id, name) VALUES (1, 'alice');
		SELECT name FROM users;
	`)

	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"run", path})

	err := cmd.Execute()
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `Table "users" created.`)
	assert.Contains(t, out, "1 rows inserted")
	assert.Contains(t, out, "alice")
}

func TestRunCommandReportsStatementFailure(t *testing.T) {
	path := writeScript(t, "INSERT INTO ghosts (id) VALUES (1);")

	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"run", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunCommandMissingFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run", "/no/such/file.sql"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSplitStatementsSkipsBlankParts(t *testing.T) {
	stmts := splitStatements("CREATE TABLE t (id INT);  ; SELECT * FROM t ;")
	assert.Equal(t, []string{"CREATE TABLE t (id INT)", "SELECT * FROM t"}, stmts)
}
