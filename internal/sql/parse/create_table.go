package parse

import (
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

var columnTypeKeywords = map[string]string{
	"INT": "integer", "INTEGER": "integer", "BIGINT": "integer", "SMALLINT": "integer",
	"TEXT": "text", "VARCHAR": "text", "CHAR": "text", "STRING": "text",
	"REAL": "real", "FLOAT": "real", "DOUBLE": "real", "NUMERIC": "real", "DECIMAL": "real",
	"BOOLEAN": "boolean", "BOOL": "boolean",
	"BLOB": "blob",
	"DATE": "date",
	"TIMESTAMP": "timestamp", "DATETIME": "timestamp",
}

// parseCreateTable handles CREATE TABLE [IF NOT EXISTS] name (...) and
// CREATE TABLE name AS SELECT ...
func parseCreateTable(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	if err := p.expectKeyword("CREATE"); err != nil {
		return errorEvent(cause, err)
	}
	if err := p.expectKeyword("TABLE"); err != nil {
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
	table, err := p.expectIdentifier()
	if err != nil {
		return errorEvent(cause, err)
	}

	if p.isKeyword("AS") {
		p.advance()
		if !p.isKeyword("SELECT") && !p.isKeyword("WITH") {
			return errorEvent(cause, &ParseError{Message: "expected SELECT after AS", Pos: p.peek().Pos})
		}
		selectToks := p.toks[p.pos:]
		return event.New("create_table_as_select", map[string]ir.Value{
			"table":        ir.Text(table),
			"selectTokens": ir.Text(restOfSQL(selectToks)),
		})
	}

	if err := p.expectSymbol("("); err != nil {
		return errorEvent(cause, err)
	}

	var columns ir.Array
	for {
		if p.isSymbol(")") {
			break
		}
		if isTableConstraintStart(p.peek()) {
			skipBalancedClause(p)
			if !p.consumeSymbol(",") {
				break
			}
			continue
		}
		col, err := parseColumnDef(p)
		if err != nil {
			return errorEvent(cause, err)
		}
		columns = append(columns, col)
		if !p.consumeSymbol(",") {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return errorEvent(cause, err)
	}

	return event.New("create_table_execute", map[string]ir.Value{
		"table":       ir.Text(table),
		"columns":     columns,
		"ifNotExists": ir.Bool(ifNotExists),
	})
}

func isTableConstraintStart(t token.Token) bool {
	if t.Kind != token.KEYWORD {
		return false
	}
	switch strings.ToUpper(t.Value) {
	case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK", "CONSTRAINT":
		return true
	default:
		return false
	}
}

// skipBalancedClause skips tokens up to the next top-level comma or
// closing paren, respecting nested parens (used for table-level
// constraints which this engine stores no metadata for).
func skipBalancedClause(p *parser) {
	depth := 0
	for !p.done() {
		if p.isSymbol("(") {
			depth++
		} else if p.isSymbol(")") {
			if depth == 0 {
				return
			}
			depth--
		} else if p.isSymbol(",") && depth == 0 {
			return
		}
		p.advance()
	}
}

func parseColumnDef(p *parser) (ir.Object, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	typeTok := p.peek()
	colType := "text"
	if typeTok.Kind == token.KEYWORD || typeTok.Kind == token.IDENTIFIER {
		if mapped, ok := columnTypeKeywords[strings.ToUpper(typeTok.Value)]; ok {
			colType = mapped
			p.advance()
			if p.isSymbol("(") {
				skipBalancedClause(p) // size spec, e.g. VARCHAR(255) -- consumes up to the ')'
				p.consumeSymbol(")")
			}
		}
	}

	col := ir.Object{"name": ir.Text(name), "type": ir.Text(colType)}
	notNull := false
	primaryKey := false

	for {
		switch {
		case p.isKeyword("NOT"):
			p.advance()
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			notNull = true
		case p.isKeyword("NULL"):
			p.advance()
		case p.isKeyword("DEFAULT"):
			p.advance()
			t := p.advance()
			v, err := literalToken(t)
			if err != nil {
				return nil, err
			}
			col["default"] = v
		case p.isKeyword("PRIMARY"):
			p.advance()
			if err := p.expectKeyword("KEY"); err != nil {
				return nil, err
			}
			primaryKey = true
			notNull = true
		case p.isKeyword("UNIQUE") || p.isKeyword("CHECK") || p.isKeyword("REFERENCES"):
			p.advance()
			if p.isSymbol("(") {
				skipBalancedClause(p)
				p.consumeSymbol(")")
			}
		default:
			col["notNull"] = ir.Bool(notNull)
			col["primaryKey"] = ir.Bool(primaryKey)
			return col, nil
		}
	}
}
