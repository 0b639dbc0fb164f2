// Package gates implements the execute gates of spec.md §4.10 and the
// query_plan / transaction gates that bridge the parser and executor to
// the Runner: each is a runner.StateGate or runner.PlainGate, declaring
// what it reads and returning a MutationBatch for the Runner to apply.
package gates

import "strconv"

// Ref naming conventions for a table's persisted state. These mirror the
// "db/<table>/rows/" prefix internal/sql/parse's table_scan steps already
// scan against, so a row written here is visible to SELECT without any
// further translation.
func schemaKey(table string) string { return "db/" + table + "/schema" }
func nextIDKey(table string) string { return "db/" + table + "/next_id" }
func rowsPrefix(table string) string { return "db/" + table + "/rows/" }
func rowKey(table string, id int64) string { return rowsPrefix(table) + strconv.FormatInt(id, 10) }
func indexesPrefix(table string) string { return "db/" + table + "/indexes/" }
func indexPrefix(table, name string) string { return indexesPrefix(table) + name + "/" }
func indexMetaKey(table, name string) string { return indexPrefix(table, name) + "meta" }
func indexEntriesPrefix(table, name string) string { return indexPrefix(table, name) + "entries/" }
func indexEntryKey(table, name string, i int) string {
	return indexEntriesPrefix(table, name) + strconv.Itoa(i)
}
func indexNamesKey(table string) string { return "db/" + table + "/index_names" }

// globalIndexKey maps an index name (unique across the whole database, as
// DROP INDEX names it without a table) to the table it was created on.
func globalIndexKey(name string) string { return "db/indexes/" + name }

func constraintsPrefix(table string) string { return "db/" + table + "/constraints/" }
func constraintKey(table, name string) string { return constraintsPrefix(table) + name }

const viewsPrefix = "db/views/"

func viewKey(name string) string { return viewsPrefix + name }

const triggersPrefix = "db/triggers/"

func triggerKey(name string) string { return triggersPrefix + name }

func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
