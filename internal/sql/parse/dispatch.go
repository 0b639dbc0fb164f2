package parse

import (
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

func asString(v ir.Value) (string, bool) {
	t, ok := v.(ir.Text)
	return string(t), ok
}

// DispatchSignature is the event type the dispatch gate claims.
const DispatchSignature = "parse_statement"

// NewDispatchGate returns the gate that tokenizes raw SQL text and
// routes it, by leading keyword, to the matching per-statement parse
// function, per spec.md §4.8.
func NewDispatchGate() event.Gate {
	return event.NewPureGate(DispatchSignature, dispatch)
}

func dispatch(e event.Event) []event.Event {
	sqlText, ok := e.Get("sql")
	if !ok {
		return []event.Event{event.Error("parse_statement: missing sql field", e)}
	}
	sql, ok := asString(sqlText)
	if !ok {
		return []event.Event{event.Error("parse_statement: sql field is not text", e)}
	}

	toks, err := token.Tokenize(sql)
	if err != nil {
		return []event.Event{event.Error(err.Error(), e)}
	}
	if len(toks) == 0 {
		return []event.Event{event.Error("parse_statement: empty statement", e)}
	}

	return []event.Event{route(toks, e)}
}

func route(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)

	switch {
	case p.isKeyword("CREATE"):
		switch up(p.peekAt(1).Value) {
		case "TABLE":
			return parseCreateTable(toks, cause)
		case "UNIQUE", "INDEX":
			return parseIndexCreate(toks, cause)
		case "VIEW", "OR":
			return parseViewCreate(toks, cause)
		case "TRIGGER":
			return parseTriggerCreate(toks, cause)
		default:
			return errorEvent(cause, &ParseError{Message: "unrecognized CREATE statement", Pos: p.peekAt(1).Pos})
		}

	case p.isKeyword("DROP"):
		switch up(p.peekAt(1).Value) {
		case "TABLE":
			return parseDropTable(toks, cause)
		case "INDEX":
			return parseIndexDrop(toks, cause)
		case "VIEW":
			return parseViewDrop(toks, cause)
		case "TRIGGER":
			return parseTriggerDrop(toks, cause)
		default:
			return errorEvent(cause, &ParseError{Message: "unrecognized DROP statement", Pos: p.peekAt(1).Pos})
		}

	case p.isKeyword("ALTER"):
		switch up(p.peekAt(3).Value) {
		case "ADD":
			if up(p.peekAt(4).Value) == "CONSTRAINT" {
				return parseConstraintCreate(toks, cause)
			}
			return parseAlterTableAddColumn(toks, cause)
		case "DROP":
			if up(p.peekAt(4).Value) == "CONSTRAINT" {
				return parseConstraintDrop(toks, cause)
			}
			return parseAlterTableDropColumn(toks, cause)
		case "RENAME":
			return parseRenameTable(toks, cause)
		default:
			return errorEvent(cause, &ParseError{Message: "unrecognized ALTER TABLE statement", Pos: p.peekAt(3).Pos})
		}

	case p.isKeyword("INSERT"):
		return parseInsert(toks, cause)
	case p.isKeyword("SELECT"), p.isKeyword("WITH"):
		return parseSelect(toks, cause)
	case p.isKeyword("UPDATE"):
		return parseUpdate(toks, cause)
	case p.isKeyword("DELETE"):
		return parseDelete(toks, cause)
	case p.isKeyword("TRUNCATE"):
		return parseTruncate(toks, cause)
	case p.isKeyword("BEGIN"):
		return parseTransactionBegin(toks, cause)
	case p.isKeyword("COMMIT"):
		return parseTransactionCommit(toks, cause)
	case p.isKeyword("ROLLBACK"):
		return parseTransactionRollback(toks, cause)
	case p.isKeyword("EXPLAIN"):
		return parseExplain(toks, cause)

	default:
		return errorEvent(cause, &ParseError{Message: "unrecognized statement", Pos: p.peek().Pos})
	}
}

func up(s string) string {
	return strings.ToUpper(s)
}
