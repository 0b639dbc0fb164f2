package parse

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

// The statement types in this file get reduced fidelity relative to
// create_table/select: each captures just enough of its grammar to
// produce a well-formed execute event, with unmodeled clauses (index
// methods, trigger bodies, check expressions) skipped as raw tokens.

func parseIndexCreate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("CREATE"); err != nil {
		return errorEvent(cause, err)
	}
	unique := p.consumeKeyword("UNIQUE")
	if err := p.expectKeyword("INDEX"); err != nil {
		return errorEvent(cause, err)
	}
	ifNotExists := false
	if p.isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("NOT"); err != nil {
			return errorEvent(cause, err)
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return errorEvent(cause, err)
		}
		ifNotExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("ON"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectSymbol("("); err != nil {
		return errorEvent(cause, err)
	}
	var columns ir.Array
	for {
		col, err := p.expectIdentifier()
		if err != nil {
			return errorEvent(cause, err)
		}
		columns = append(columns, ir.Text(col))
		if !p.consumeSymbol(",") {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return errorEvent(cause, err)
	}
	return event.New("index_create_execute", map[string]ir.Value{
		"name":        ir.Text(name),
		"table":       ir.Text(table),
		"columns":     columns,
		"unique":      ir.Bool(unique),
		"ifNotExists": ir.Bool(ifNotExists),
	})
}

func parseIndexDrop(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("INDEX"); err != nil {
		return errorEvent(cause, err)
	}
	ifExists := false
	if p.isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("EXISTS"); err != nil {
			return errorEvent(cause, err)
		}
		ifExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("index_drop_execute", map[string]ir.Value{
		"name":     ir.Text(name),
		"ifExists": ir.Bool(ifExists),
	})
}

func parseViewCreate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("CREATE"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("OR")
	if p.isKeyword("REPLACE") {
		p.advance()
	}
	if err := p.expectKeyword("VIEW"); err != nil {
		return errorEvent(cause, err)
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("AS"); err != nil {
		return errorEvent(cause, err)
	}
	selectToks := p.toks[p.pos:]
	return event.New("view_create_execute", map[string]ir.Value{
		"name":         ir.Text(name),
		"selectTokens": ir.Text(restOfSQL(selectToks)),
	})
}

func parseViewDrop(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("VIEW"); err != nil {
		return errorEvent(cause, err)
	}
	ifExists := false
	if p.isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("EXISTS"); err != nil {
			return errorEvent(cause, err)
		}
		ifExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("view_drop_execute", map[string]ir.Value{
		"name":     ir.Text(name),
		"ifExists": ir.Bool(ifExists),
	})
}

// parseTriggerCreate captures the trigger's timing, event, table and
// body as raw token text; execution of the body is handled by whatever
// gate fires the trigger, not by this parser.
func parseTriggerCreate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("CREATE"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TRIGGER"); err != nil {
		return errorEvent(cause, err)
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}

	timing := "BEFORE"
	switch {
	case p.isKeyword("BEFORE"):
		p.advance()
	case p.isKeyword("AFTER"):
		p.advance()
		timing = "AFTER"
	case p.isKeyword("INSTEAD"):
		p.advance()
		if err := p.expectKeyword("OF"); err != nil {
			return errorEvent(cause, err)
		}
		timing = "INSTEAD OF"
	}

	triggerEvent, err := p.expectIdentifier() // INSERT / UPDATE / DELETE
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("ON"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("FOR")
	if p.isKeyword("EACH") {
		p.advance()
		p.consumeKeyword("ROW")
	}
	bodyToks := p.toks[p.pos:]
	return event.New("trigger_create_execute", map[string]ir.Value{
		"name":   ir.Text(name),
		"timing": ir.Text(timing),
		"event":  ir.Text(triggerEvent),
		"table":  ir.Text(table),
		"body":   ir.Text(restOfSQL(bodyToks)),
	})
}

func parseTriggerDrop(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TRIGGER"); err != nil {
		return errorEvent(cause, err)
	}
	ifExists := false
	if p.isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("EXISTS"); err != nil {
			return errorEvent(cause, err)
		}
		ifExists = true
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("trigger_drop_execute", map[string]ir.Value{
		"name":     ir.Text(name),
		"ifExists": ir.Bool(ifExists),
	})
}

// parseConstraintCreate handles ALTER TABLE t ADD CONSTRAINT name ...;
// the constraint body (check expression, foreign key clause) is skipped
// as raw tokens -- this engine only tracks the constraint's name and
// table for later DROP, not its enforcement semantics.
func parseConstraintCreate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ALTER"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("ADD"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("CONSTRAINT"); err != nil {
		return errorEvent(cause, err)
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	bodyToks := p.toks[p.pos:]
	return event.New("constraint_create_execute", map[string]ir.Value{
		"table": ir.Text(table),
		"name":  ir.Text(name),
		"body":  ir.Text(restOfSQL(bodyToks)),
	})
}

func parseConstraintDrop(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ALTER"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("CONSTRAINT"); err != nil {
		return errorEvent(cause, err)
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("constraint_drop_execute", map[string]ir.Value{
		"table": ir.Text(table),
		"name":  ir.Text(name),
	})
}

func parseAlterTableAddColumn(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ALTER"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("ADD"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("COLUMN")
	col, err := parseColumnDef(p)
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("alter_table_add_column_execute", map[string]ir.Value{
		"table":  ir.Text(table),
		"column": col,
	})
}

func parseAlterTableDropColumn(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ALTER"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("COLUMN")
	col, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("alter_table_drop_column_execute", map[string]ir.Value{
		"table":  ir.Text(table),
		"column": ir.Text(col),
	})
}

func parseRenameTable(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("ALTER"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return errorEvent(cause, err)
	}
	from, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("RENAME"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TO"); err != nil {
		return errorEvent(cause, err)
	}
	to, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("rename_table_execute", map[string]ir.Value{
		"from": ir.Text(from),
		"to":   ir.Text(to),
	})
}

func parseExplain(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("EXPLAIN"); err != nil {
		return errorEvent(cause, err)
	}
	rest := p.toks[p.pos:]
	return event.New("explain", map[string]ir.Value{
		"statementTokens": ir.Text(restOfSQL(rest)),
	})
}
