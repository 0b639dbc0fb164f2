package gates

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// AlterAddColumnGate implements alter_table_add_column_execute: the new
// column is appended to the schema, and every existing row is backfilled
// with its default (or NULL).
type AlterAddColumnGate struct{}

func (AlterAddColumnGate) Signature() string { return "alter_table_add_column_execute" }

func (AlterAddColumnGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithPattern(rowsPrefix(table))
}

func (AlterAddColumnGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	col, _ := e.MustGet("column").(ir.Object)

	schemaVal, ok := resolved.Ref(schemaKey(table))
	if !ok {
		return nil, TableNotFoundError{Table: table}
	}
	schema, _ := schemaVal.(ir.Object)
	cols, _ := schema["columns"].(ir.Array)
	cols = append(cols, col)

	batch := state.NewMutationBatch()
	newSchema := ir.Object{"table": ir.Text(table), "columns": cols}
	schemaIdx := batch.Put("schema", newSchema)
	batch.SetFromPut(schemaKey(table), schemaIdx)

	name := columnName(col)
	def, hasDefault := col["default"]
	for _, entry := range resolved.Pattern(rowsPrefix(table)) {
		row, ok := entry.Value.(ir.Object)
		if !ok {
			continue
		}
		if _, exists := row[name]; exists {
			continue
		}
		updated := ir.Object{}
		for k, v := range row {
			updated[k] = v
		}
		if hasDefault {
			updated[name] = def
		} else {
			updated[name] = ir.Null{}
		}
		idx := batch.Put("row", updated)
		batch.SetFromPut(entry.Name, idx)
	}

	batch.Emit(event.New("column_added", map[string]ir.Value{"table": ir.Text(table), "column": ir.Text(name)}))
	return batch, nil
}

// AlterDropColumnGate implements alter_table_drop_column_execute.
type AlterDropColumnGate struct{}

func (AlterDropColumnGate) Signature() string { return "alter_table_drop_column_execute" }

func (AlterDropColumnGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithPattern(rowsPrefix(table))
}

func (AlterDropColumnGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	column, _ := asString(e.MustGet("column"))

	schemaVal, ok := resolved.Ref(schemaKey(table))
	if !ok {
		return nil, TableNotFoundError{Table: table}
	}
	schema, _ := schemaVal.(ir.Object)
	cols, _ := schema["columns"].(ir.Array)

	kept := make(ir.Array, 0, len(cols))
	found := false
	for _, c := range cols {
		co, ok := c.(ir.Object)
		if !ok {
			continue
		}
		if columnName(co) == column {
			found = true
			continue
		}
		kept = append(kept, co)
	}
	if !found {
		return nil, ColumnNotFoundError{Table: table, Column: column}
	}

	batch := state.NewMutationBatch()
	newSchema := ir.Object{"table": ir.Text(table), "columns": kept}
	schemaIdx := batch.Put("schema", newSchema)
	batch.SetFromPut(schemaKey(table), schemaIdx)

	for _, entry := range resolved.Pattern(rowsPrefix(table)) {
		row, ok := entry.Value.(ir.Object)
		if !ok {
			continue
		}
		if _, exists := row[column]; !exists {
			continue
		}
		updated := ir.Object{}
		for k, v := range row {
			if k == column {
				continue
			}
			updated[k] = v
		}
		idx := batch.Put("row", updated)
		batch.SetFromPut(entry.Name, idx)
	}

	batch.Emit(event.New("column_dropped", map[string]ir.Value{"table": ir.Text(table), "column": ir.Text(column)}))
	return batch, nil
}

// RenameTableGate implements rename_table_execute: the schema, next_id,
// row, and index state are all re-homed under the new table name.
type RenameTableGate struct{}

func (RenameTableGate) Signature() string { return "rename_table_execute" }

func (RenameTableGate) ReadSet(e event.Event) *state.ReadSet {
	from, _ := asString(e.MustGet("from"))
	to, _ := asString(e.MustGet("to"))
	return state.NewReadSet().
		WithRef(schemaKey(from)).
		WithRef(nextIDKey(from)).
		WithRef(indexNamesKey(from)).
		WithRef(schemaKey(to)).
		WithPattern(rowsPrefix(from)).
		WithPattern(indexesPrefix(from))
}

func (RenameTableGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	from, _ := asString(e.MustGet("from"))
	to, _ := asString(e.MustGet("to"))

	schemaVal, ok := resolved.Ref(schemaKey(from))
	if !ok {
		return nil, TableNotFoundError{Table: from}
	}
	if _, exists := resolved.Ref(schemaKey(to)); exists {
		return nil, TableExistsError{Table: to}
	}

	batch := state.NewMutationBatch()

	schema, _ := schemaVal.(ir.Object)
	newSchema := ir.Object{"table": ir.Text(to), "columns": schema["columns"]}
	schemaIdx := batch.Put("schema", newSchema)
	batch.SetFromPut(schemaKey(to), schemaIdx)
	batch.Delete(schemaKey(from))

	if nextIDVal, ok := resolved.Ref(nextIDKey(from)); ok {
		idx := batch.Put("next_id", nextIDVal)
		batch.SetFromPut(nextIDKey(to), idx)
		batch.Delete(nextIDKey(from))
	}

	for _, entry := range resolved.Pattern(rowsPrefix(from)) {
		id := lastSegment(entry.Name)
		idx := batch.Put("row", entry.Value)
		batch.SetFromPut(rowsPrefix(to)+id, idx)
		batch.Delete(entry.Name)
	}

	for _, entry := range resolved.Pattern(indexesPrefix(from)) {
		rest := entry.Name[len(indexesPrefix(from)):]
		idx := batch.Put("index_state", entry.Value)
		batch.SetFromPut(indexesPrefix(to)+rest, idx)
		batch.Delete(entry.Name)
	}

	if namesVal, ok := resolved.Ref(indexNamesKey(from)); ok {
		idx := batch.Put("index_names", namesVal)
		batch.SetFromPut(indexNamesKey(to), idx)
		batch.Delete(indexNamesKey(from))

		if names, ok := namesVal.(ir.Array); ok {
			for _, n := range names {
				name, ok := n.(ir.Text)
				if !ok {
					continue
				}
				tableIdx := batch.Put("index_table", ir.Text(to))
				batch.SetFromPut(globalIndexKey(string(name)), tableIdx)
			}
		}
	}

	batch.Emit(event.New("table_renamed", map[string]ir.Value{"from": ir.Text(from), "to": ir.Text(to)}))
	return batch, nil
}
