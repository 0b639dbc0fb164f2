package gates

import (
	"fmt"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// IndexCreateGate implements index_create_execute: building an index's
// {key, row_ids} entries from the table's current rows, then registering
// its name so insert/update/delete keep it current.
type IndexCreateGate struct{}

func (IndexCreateGate) Signature() string { return "index_create_execute" }

func (IndexCreateGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().
		WithRef(schemaKey(table)).
		WithRef(indexNamesKey(table)).
		WithRef(globalIndexKey(name)).
		WithPattern(rowsPrefix(table))
}

func (IndexCreateGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	columns, _ := e.MustGet("columns").(ir.Array)
	unique := boolOf(e.MustGet("unique"))
	ifNotExists := boolOf(e.MustGet("ifNotExists"))

	schemaVal, ok := resolved.Ref(schemaKey(table))
	if !ok {
		return nil, TableNotFoundError{Table: table}
	}
	if _, exists := resolved.Ref(globalIndexKey(name)); exists {
		if ifNotExists {
			batch := state.NewMutationBatch()
			batch.Emit(event.New("index_exists", map[string]ir.Value{"name": ir.Text(name)}))
			return batch, nil
		}
		return nil, fmt.Errorf("gates: index %q already exists", name)
	}

	column := ""
	if len(columns) > 0 {
		if t, ok := columns[0].(ir.Text); ok {
			column = string(t)
		}
	}
	if !columnExists(schemaVal, column) {
		return nil, ColumnNotFoundError{Table: table, Column: column}
	}

	rows := rowsFromPattern(resolved.Pattern(rowsPrefix(table)))

	batch := state.NewMutationBatch()
	metaIdx := batch.Put("index_meta", ir.Object{"column": ir.Text(column), "unique": ir.Bool(unique)})
	batch.SetFromPut(indexMetaKey(table, name), metaIdx)

	groups := map[string][]string{}
	keyVals := map[string]ir.Value{}
	for id, row := range rows {
		v, ok := row[column]
		if !ok {
			v = ir.Null{}
		}
		ck, err := canonKey(v)
		if err != nil {
			return nil, err
		}
		groups[ck] = append(groups[ck], id)
		keyVals[ck] = v
	}

	i := 0
	for ck, ids := range groups {
		if unique && len(ids) > 1 {
			return nil, UniqueViolationError{Index: name, Key: ck}
		}
		idArr := make(ir.Array, len(ids))
		for j, id := range ids {
			idArr[j] = ir.Text(id)
		}
		entryIdx := batch.Put("index_entry", ir.Object{"key": keyVals[ck], "row_ids": idArr})
		batch.SetFromPut(indexEntryKey(table, name, i), entryIdx)
		i++
	}

	namesVal, _ := resolved.Ref(indexNamesKey(table))
	names, _ := namesVal.(ir.Array)
	names = append(names, ir.Text(name))
	namesIdx := batch.Put("index_names", names)
	batch.SetFromPut(indexNamesKey(table), namesIdx)

	globalIdx := batch.Put("index_table", ir.Text(table))
	batch.SetFromPut(globalIndexKey(name), globalIdx)

	batch.Emit(event.New("index_created", map[string]ir.Value{"name": ir.Text(name), "table": ir.Text(table)}))
	return batch, nil
}

func columnExists(schema ir.Value, column string) bool {
	for _, col := range schemaColumns(schema) {
		if columnName(col) == column {
			return true
		}
	}
	return false
}

// IndexDropGate implements the first half of index_drop_execute. DROP
// INDEX carries no table name, so the table has to be recovered from the
// global index registry before the entries can be located; this gate does
// just that lookup and hands off to index_drop_table_known with the table
// name attached, since a single gate's ReadSet is fixed before its
// Resolve runs and can't depend on a value Resolve itself discovers.
type IndexDropGate struct{}

func (IndexDropGate) Signature() string { return "index_drop_execute" }

func (IndexDropGate) ReadSet(e event.Event) *state.ReadSet {
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().WithRef(globalIndexKey(name))
}

func (IndexDropGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	name, _ := asString(e.MustGet("name"))
	ifExists := boolOf(e.MustGet("ifExists"))

	tableVal, ok := resolved.Ref(globalIndexKey(name))
	if !ok {
		batch := state.NewMutationBatch()
		if ifExists {
			return batch, nil
		}
		return nil, IndexNotFoundError{Name: name}
	}
	table, _ := tableVal.(ir.Text)

	batch := state.NewMutationBatch()
	batch.Emit(event.New("index_drop_table_known", map[string]ir.Value{
		"name":  ir.Text(name),
		"table": table,
	}))
	return batch, nil
}

// IndexDropFinishGate implements the second half: with the table now
// known, it deletes the index's meta, entries, and registry memberships.
type IndexDropFinishGate struct{}

func (IndexDropFinishGate) Signature() string { return "index_drop_table_known" }

func (IndexDropFinishGate) ReadSet(e event.Event) *state.ReadSet {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))
	return state.NewReadSet().
		WithRef(indexNamesKey(table)).
		WithPattern(indexEntriesPrefix(table, name))
}

func (IndexDropFinishGate) Resolve(e event.Event, resolved *state.Resolved) (*state.MutationBatch, error) {
	table, _ := asString(e.MustGet("table"))
	name, _ := asString(e.MustGet("name"))

	batch := state.NewMutationBatch()
	batch.Delete(globalIndexKey(name))
	batch.Delete(indexMetaKey(table, name))
	for _, entry := range resolved.Pattern(indexEntriesPrefix(table, name)) {
		batch.Delete(entry.Name)
	}

	namesVal, _ := resolved.Ref(indexNamesKey(table))
	names, _ := namesVal.(ir.Array)
	kept := make(ir.Array, 0, len(names))
	for _, n := range names {
		if t, ok := n.(ir.Text); ok && string(t) != name {
			kept = append(kept, t)
		}
	}
	namesIdx := batch.Put("index_names", kept)
	batch.SetFromPut(indexNamesKey(table), namesIdx)

	batch.Emit(event.New("index_dropped", map[string]ir.Value{"name": ir.Text(name), "table": ir.Text(table)}))
	return batch, nil
}
