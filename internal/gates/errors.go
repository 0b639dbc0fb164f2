package gates

import "fmt"

// TableNotFoundError is returned when a gate targets a table with no
// schema ref, and the statement did not opt into ifExists/ifNotExists
// tolerance.
type TableNotFoundError struct {
	Table string
}

func (e TableNotFoundError) Error() string {
	return fmt.Sprintf("gates: table %q does not exist", e.Table)
}

// TableExistsError is returned by create_table_execute when the table
// already exists and ifNotExists was not given.
type TableExistsError struct {
	Table string
}

func (e TableExistsError) Error() string {
	return fmt.Sprintf("gates: table %q already exists", e.Table)
}

// ColumnNotFoundError is returned when a statement references a column
// absent from the target table's schema.
type ColumnNotFoundError struct {
	Table, Column string
}

func (e ColumnNotFoundError) Error() string {
	return fmt.Sprintf("gates: table %q has no column %q", e.Table, e.Column)
}

// NotNullViolationError is returned by insert_execute when a row omits a
// value for a non-nullable column with no default.
type NotNullViolationError struct {
	Table, Column string
}

func (e NotNullViolationError) Error() string {
	return fmt.Sprintf("gates: NOT NULL violation: %s.%s", e.Table, e.Column)
}

// UniqueViolationError is returned by index_create_execute when two rows
// share a key under a UNIQUE index.
type UniqueViolationError struct {
	Index string
	Key   string
}

func (e UniqueViolationError) Error() string {
	return fmt.Sprintf("gates: unique violation on index %q for key %s", e.Index, e.Key)
}

// IndexNotFoundError is returned when DROP INDEX names a missing index.
type IndexNotFoundError struct {
	Name string
}

func (e IndexNotFoundError) Error() string {
	return fmt.Sprintf("gates: index %q does not exist", e.Name)
}
