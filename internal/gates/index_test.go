package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/nysql/internal/ir"
)

func TestCreateIndexEnforcesUniqueness(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, email TEXT)")
	submit(t, r, "INSERT INTO users (id, email) VALUES (1, 'a@x.com'), (2, 'a@x.com')")

	out := submit(t, r, "CREATE UNIQUE INDEX idx_email ON users (email)")
	firstOfType(t, out, "error")
}

func TestCreateIndexThenUniqueInsertFails(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, email TEXT)")
	submit(t, r, "INSERT INTO users (id, email) VALUES (1, 'a@x.com')")

	out := submit(t, r, "CREATE UNIQUE INDEX idx_email ON users (email)")
	requireNoError(t, out)
	firstOfType(t, out, "index_created")

	out = submit(t, r, "INSERT INTO users (id, email) VALUES (2, 'a@x.com')")
	firstOfType(t, out, "error")
}

func TestDropIndexThenRecreate(t *testing.T) {
	r := newTestRunner(t)
	submit(t, r, "CREATE TABLE users (id INT PRIMARY KEY, email TEXT)")
	submit(t, r, "INSERT INTO users (id, email) VALUES (1, 'a@x.com')")
	submit(t, r, "CREATE UNIQUE INDEX idx_email ON users (email)")

	out := submit(t, r, "DROP INDEX idx_email")
	requireNoError(t, out)
	dropped := firstOfType(t, out, "index_dropped")
	assert.Equal(t, ir.Text("users"), dropped.MustGet("table"))

	out = submit(t, r, "INSERT INTO users (id, email) VALUES (2, 'a@x.com')")
	requireNoError(t, out)
	firstOfType(t, out, "row_inserted")
}

func TestDropMissingIndexWithoutIfExists(t *testing.T) {
	r := newTestRunner(t)
	out := submit(t, r, "DROP INDEX ghost_idx")
	firstOfType(t, out, "error")
}

func TestDropMissingIndexIfExists(t *testing.T) {
	r := newTestRunner(t)
	out := submit(t, r, "DROP INDEX IF EXISTS ghost_idx")
	requireNoError(t, out)
}
