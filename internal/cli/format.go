package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
)

// formatEvent renders one terminal event as the canonical acknowledgement
// or error string a caller of Submit-SQL sees, for every event type a
// gate can emit. Events this function does not recognize (diagnostic
// events a future gate adds) fall through to their bare type name.
func formatEvent(e event.Event) string {
	switch e.Type {
	case "error":
		msg, _ := e.MustGet("message").(ir.Text)
		return fmt.Sprintf("Error: %s", msg)
	case "query_result":
		return formatRows(e)
	case "table_created":
		return fmt.Sprintf("Table %q created.", textField(e, "table"))
	case "table_exists":
		return fmt.Sprintf("Table %q already exists.", textField(e, "table"))
	case "table_dropped":
		return fmt.Sprintf("Table %q dropped.", textField(e, "table"))
	case "table_renamed":
		return fmt.Sprintf("Table %q renamed to %q.", textField(e, "from"), textField(e, "to"))
	case "row_inserted":
		return formatRowInserted(e)
	case "row_updated":
		return fmt.Sprintf("%d rows updated.", idCount(e))
	case "row_deleted":
		return fmt.Sprintf("%d rows deleted.", idCount(e))
	case "column_added":
		return fmt.Sprintf("Column %q added to %q.", textField(e, "column"), textField(e, "table"))
	case "column_dropped":
		return fmt.Sprintf("Column %q dropped from %q.", textField(e, "column"), textField(e, "table"))
	case "index_created":
		return fmt.Sprintf("Index %q created.", textField(e, "name"))
	case "index_dropped":
		return fmt.Sprintf("Index %q dropped.", textField(e, "name"))
	case "index_exists":
		return fmt.Sprintf("Index %q already exists.", textField(e, "name"))
	case "view_created":
		return fmt.Sprintf("View %q created.", textField(e, "name"))
	case "view_dropped":
		return fmt.Sprintf("View %q dropped.", textField(e, "name"))
	case "trigger_created":
		return "Trigger created."
	case "trigger_dropped":
		return "Trigger dropped."
	case "constraint_created":
		return fmt.Sprintf("Constraint %q created.", textField(e, "name"))
	case "constraint_dropped":
		return fmt.Sprintf("Constraint %q dropped.", textField(e, "name"))
	case "transaction_started":
		return "Transaction started."
	case "transaction_committed":
		return "Transaction committed."
	case "transaction_rolled_back":
		return "Transaction rolled back."
	default:
		return e.Type
	}
}

func textField(e event.Event, key string) string {
	t, _ := e.MustGet(key).(ir.Text)
	return string(t)
}

func idCount(e event.Event) int {
	ids, _ := e.MustGet("ids").(ir.Array)
	return len(ids)
}

func formatRowInserted(e event.Event) string {
	if conflict, ok := e.MustGet("conflict").(ir.Text); ok && conflict != "" {
		return fmt.Sprintf("Row insert %s (conflict).", conflict)
	}
	ids, _ := e.MustGet("ids").(ir.Array)
	if len(ids) == 0 {
		return "0 rows inserted."
	}
	last, _ := ids[len(ids)-1].(ir.Text)
	return fmt.Sprintf("%d rows inserted (last id: %s).", len(ids), last)
}

func formatRows(e event.Event) string {
	rows, _ := e.MustGet("rows").(ir.Array)
	if len(rows) == 0 {
		return "0 rows."
	}

	var cols []string
	if first, ok := rows[0].(ir.Object); ok {
		cols = first.SortedKeys()
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))
	b.WriteByte('\n')
	for _, r := range rows {
		obj, ok := r.(ir.Object)
		if !ok {
			continue
		}
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = formatValue(obj[c])
		}
		b.WriteString(strings.Join(vals, "\t"))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL"
	case ir.Text:
		return string(val)
	case ir.Bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}
