package gates

import (
	"strings"

	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/state"
)

// rebuildIndexes recomputes every index registered for table from
// finalRows (the complete post-mutation row set) and stages the rewrite
// into batch. insert/update/delete all call this after deciding their
// target rows, per spec.md §4.10's "rebuild every index" language.
func rebuildIndexes(batch *state.MutationBatch, resolved *state.Resolved, table string, finalRows map[string]ir.Object) error {
	namesVal, ok := resolved.Ref(indexNamesKey(table))
	if !ok {
		return nil
	}
	namesArr, _ := namesVal.(ir.Array)
	all := resolved.Pattern(indexesPrefix(table))

	for _, nameVal := range namesArr {
		name, ok := nameVal.(ir.Text)
		if !ok {
			continue
		}
		idxName := string(name)
		meta := findIndexMeta(all, table, idxName)
		if meta == nil {
			continue
		}
		column, _ := meta["column"].(ir.Text)
		unique, _ := meta["unique"].(ir.Bool)

		prefix := indexEntriesPrefix(table, idxName)
		for _, e := range all {
			if strings.HasPrefix(e.Name, prefix) {
				batch.Delete(e.Name)
			}
		}

		groups := map[string][]string{}
		keyVals := map[string]ir.Value{}
		for id, row := range finalRows {
			v, ok := row[string(column)]
			if !ok {
				v = ir.Null{}
			}
			ck, err := canonKey(v)
			if err != nil {
				return err
			}
			groups[ck] = append(groups[ck], id)
			keyVals[ck] = v
		}

		i := 0
		for ck, ids := range groups {
			if bool(unique) && len(ids) > 1 {
				return UniqueViolationError{Index: idxName, Key: ck}
			}
			idArr := make(ir.Array, len(ids))
			for j, id := range ids {
				idArr[j] = ir.Text(id)
			}
			entryVal := ir.Object{"key": keyVals[ck], "row_ids": idArr}
			putIdx := batch.Put("index_entry", entryVal)
			batch.SetFromPut(indexEntryKey(table, idxName, i), putIdx)
			i++
		}
	}
	return nil
}

func findIndexMeta(entries []state.NamedEntry, table, name string) ir.Object {
	key := indexMetaKey(table, name)
	for _, e := range entries {
		if e.Name == key {
			if obj, ok := e.Value.(ir.Object); ok {
				return obj
			}
		}
	}
	return nil
}

func canonKey(v ir.Value) (string, error) {
	b, err := ir.Canonicalize(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
