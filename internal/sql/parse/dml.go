package parse

import (
	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

func parseDropTable(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("DROP"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
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
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("drop_table_execute", map[string]ir.Value{
		"table":    ir.Text(table),
		"ifExists": ir.Bool(ifExists),
	})
}

func parseInsert(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("INSERT"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}

	var columns []string
	if p.isSymbol("(") {
		p.advance()
		for {
			name, err := p.expectIdentifier()
			if err != nil {
				return errorEvent(cause, err)
			}
			columns = append(columns, name)
			if !p.consumeSymbol(",") {
				break
			}
		}
		if err := p.expectSymbol(")"); err != nil {
			return errorEvent(cause, err)
		}
	}

	if p.isKeyword("SELECT") || p.isKeyword("WITH") {
		selectToks := p.toks[p.pos:]
		colArr := make(ir.Array, len(columns))
		for i, c := range columns {
			colArr[i] = ir.Text(c)
		}
		return event.New("insert_select", map[string]ir.Value{
			"table":        ir.Text(table),
			"columns":      colArr,
			"selectTokens": ir.Text(restOfSQL(selectToks)),
		})
	}

	var rows ir.Array
	if p.isKeyword("DEFAULT") {
		p.advance()
		if err := p.expectKeyword("VALUES"); err != nil {
			return errorEvent(cause, err)
		}
		rows = append(rows, ir.Object{})
	} else {
		if err := p.expectKeyword("VALUES"); err != nil {
			return errorEvent(cause, err)
		}
		for {
			if err := p.expectSymbol("("); err != nil {
				return errorEvent(cause, err)
			}
			row := ir.Object{}
			i := 0
			for {
				if p.isSymbol(")") {
					break
				}
				v, err := p.parseExpr()
				if err != nil {
					return errorEvent(cause, err)
				}
				lit, ok := literalFromExprNode(v)
				if !ok {
					return errorEvent(cause, &ParseError{Message: "expected literal value in VALUES", Pos: p.peek().Pos})
				}
				key := columnAt(columns, i)
				row[key] = lit
				i++
				if !p.consumeSymbol(",") {
					break
				}
			}
			if err := p.expectSymbol(")"); err != nil {
				return errorEvent(cause, err)
			}
			rows = append(rows, row)
			if !p.consumeSymbol(",") {
				break
			}
		}
	}

	onConflict, err := parseOnConflict(p)
	if err != nil {
		return errorEvent(cause, err)
	}

	returning, err := parseReturning(p)
	if err != nil {
		return errorEvent(cause, err)
	}

	data := map[string]ir.Value{
		"table": ir.Text(table),
		"rows":  rows,
	}
	if onConflict != nil {
		data["onConflict"] = onConflict
	}
	if returning != nil {
		data["returning"] = returning
	}
	return event.New("insert_execute", data)
}

func columnAt(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return "col" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func literalFromExprNode(node ir.Object) (ir.Value, bool) {
	kind, _ := node["kind"].(ir.Text)
	if string(kind) != "literal" {
		return nil, false
	}
	return node["value"], true
}

func parseOnConflict(p *parser) (ir.Value, error) {
	if !p.isKeyword("ON") {
		return nil, nil
	}
	p.advance()
	if err := p.expectKeyword("CONFLICT"); err != nil {
		return nil, err
	}
	var col string
	if p.isSymbol("(") {
		p.advance()
		c, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		col = c
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("DO"); err != nil {
		return nil, err
	}
	if p.isKeyword("NOTHING") {
		p.advance()
		return ir.Object{"column": ir.Text(col), "action": ir.Text("nothing")}, nil
	}
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	changes, err := parseSetList(p)
	if err != nil {
		return nil, err
	}
	return ir.Object{"column": ir.Text(col), "action": ir.Text("update"), "changes": changes}, nil
}

func parseSetList(p *parser) (ir.Object, error) {
	changes := ir.Object{}
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectOperatorEquals(); err != nil {
			return nil, err
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		changes[name] = v
		if !p.consumeSymbol(",") {
			break
		}
	}
	return changes, nil
}

func (p *parser) expectOperatorEquals() error {
	if p.isOperator("=") {
		p.advance()
		return nil
	}
	return &ParseError{Message: "expected '='", Pos: p.peek().Pos}
}

func parseReturning(p *parser) (ir.Value, error) {
	if !p.isKeyword("RETURNING") {
		return nil, nil
	}
	p.advance()
	if p.isSymbol("*") {
		p.advance()
		return ir.Text("*"), nil
	}
	var cols ir.Array
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		cols = append(cols, ir.Text(name))
		if !p.consumeSymbol(",") {
			break
		}
	}
	return cols, nil
}

func parseUpdate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("UPDATE"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("SET"); err != nil {
		return errorEvent(cause, err)
	}
	changes, err := parseSetList(p)
	if err != nil {
		return errorEvent(cause, err)
	}

	data := map[string]ir.Value{
		"table":       ir.Text(table),
		"changesExprs": changes,
	}

	if p.isKeyword("FROM") {
		p.advance()
		fromTable, err := p.expectIdentifier()
		if err != nil {
			return errorEvent(cause, err)
		}
		data["fromTable"] = ir.Text(fromTable)
		if p.isKeyword("AS") {
			p.advance()
		}
		if p.peek().Kind == token.IDENTIFIER {
			alias := p.advance().Value
			data["fromAlias"] = ir.Text(alias)
		}
	}

	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parseWhereExpr()
		if err != nil {
			return errorEvent(cause, err)
		}
		data["where"] = where
	}

	returning, err := parseReturning(p)
	if err != nil {
		return errorEvent(cause, err)
	}
	if returning != nil {
		data["returning"] = returning
	}

	return event.New("update_execute", data)
}

func parseDelete(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("DELETE"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return errorEvent(cause, err)
	}
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}

	data := map[string]ir.Value{"table": ir.Text(table)}

	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parseWhereExpr()
		if err != nil {
			return errorEvent(cause, err)
		}
		data["where"] = where
	}

	returning, err := parseReturning(p)
	if err != nil {
		return errorEvent(cause, err)
	}
	if returning != nil {
		data["returning"] = returning
	}

	return event.New("delete_execute", data)
}

func parseTruncate(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("TRUNCATE"); err != nil {
		return errorEvent(cause, err)
	}
	p.consumeKeyword("TABLE")
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}
	return event.New("delete_execute", map[string]ir.Value{"table": ir.Text(table)})
}
