package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommandListsTables(t *testing.T) {
	dbDir := t.TempDir()
	scriptPath := filepath.Join(dbDir, "setup.sql")
	require.NoError(t, os.WriteFile(scriptPath, []byte(
		"CREATE TABLE users (id INT PRIMARY KEY, name TEXT);",
	), 0o644))

	data := filepath.Join(dbDir, "data")

	runCmd := NewRootCommand()
	runCmd.SetArgs([]string{"run", scriptPath, "--db", data})
	require.NoError(t, runCmd.Execute())

	schemaCmd := NewRootCommand()
	buf := &bytes.Buffer{}
	schemaCmd.SetOut(buf)
	schemaCmd.SetArgs([]string{"schema", "--db", data})
	require.NoError(t, schemaCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "users:")
	assert.Contains(t, out, "id(integer)")
}

func TestSchemaCommandEmptyDatabase(t *testing.T) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"schema"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No tables.")
}
