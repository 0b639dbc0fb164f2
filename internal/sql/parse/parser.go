// Package parse implements the dispatch gate and per-statement parse
// gates of spec.md §4.8: tokens in, an intermediate "*_execute" or
// "query_plan" event out (or an "error" event on failure).
package parse

import (
	"strconv"
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

// parser walks a token slice with a cursor, in the teacher's small
// hand-rolled recursive-descent style.
type parser struct {
	toks []token.Token
	pos  int
}

func newParser(toks []token.Token) *parser {
	return &parser{toks: toks}
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token.Token {
	if p.done() {
		return token.Token{}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i < 0 || i >= len(p.toks) {
		return token.Token{}
	}
	return p.toks[i]
}

func (p *parser) advance() token.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == token.KEYWORD && strings.EqualFold(t.Value, kw)
}

func (p *parser) isSymbol(sym string) bool {
	t := p.peek()
	return t.Kind == token.SYMBOL && t.Value == sym
}

func (p *parser) isOperator(op string) bool {
	t := p.peek()
	return t.Kind == token.OPERATOR && t.Value == op
}

func (p *parser) consumeKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) consumeSymbol(sym string) bool {
	if p.isSymbol(sym) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.consumeKeyword(kw) {
		return &ParseError{Message: "expected keyword " + kw, Pos: p.peek().Pos}
	}
	return nil
}

func (p *parser) expectSymbol(sym string) error {
	if !p.consumeSymbol(sym) {
		return &ParseError{Message: "expected '" + sym + "'", Pos: p.peek().Pos}
	}
	return nil
}

func (p *parser) expectIdentifier() (string, error) {
	t := p.peek()
	if t.Kind != token.IDENTIFIER && t.Kind != token.KEYWORD {
		return "", &ParseError{Message: "expected identifier", Pos: t.Pos}
	}
	p.advance()
	return t.Value, nil
}

// ParseError is the typed error every parse gate returns on malformed
// input; the caller converts it into an "error" event.
type ParseError struct {
	Message string
	Pos     int
}

func (e *ParseError) Error() string {
	return "parse error at byte " + strconv.Itoa(e.Pos) + ": " + e.Message
}

func errorEvent(cause event.Event, err error) event.Event {
	return event.Error(err.Error(), cause)
}

func restOfSQL(toks []token.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Value)
	}
	return sb.String()
}

func literalToken(t token.Token) (ir.Value, error) {
	switch t.Kind {
	case token.STRING:
		return ir.Text(t.Value), nil
	case token.NUMBER:
		if strings.Contains(t.Value, ".") {
			f, err := strconv.ParseFloat(t.Value, 64)
			if err != nil {
				return nil, &ParseError{Message: "invalid number " + t.Value, Pos: t.Pos}
			}
			return ir.Float(f), nil
		}
		n, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return nil, &ParseError{Message: "invalid number " + t.Value, Pos: t.Pos}
		}
		return ir.Int(n), nil
	case token.BOOLEAN:
		return ir.Bool(strings.EqualFold(t.Value, "TRUE")), nil
	case token.NULL:
		return ir.Null{}, nil
	default:
		return nil, &ParseError{Message: "expected literal", Pos: t.Pos}
	}
}
