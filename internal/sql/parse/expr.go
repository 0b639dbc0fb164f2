package parse

import (
	"strings"

	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/sql/token"
)

// parseExpr is the recursive-descent expression grammar of spec.md
// §4.8: `||` (CONCAT), then additive, then multiplicative, then unary
// `-`, then atoms.
func (p *parser) parseExpr() (ir.Object, error) {
	return p.parseConcat()
}

func (p *parser) parseConcat() (ir.Object, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isOperator("||") {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = expr.Binary("||", left, right)
	}
	return left, nil
}

func (p *parser) parseAdditive() (ir.Object, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOperator("+") || p.isOperator("-") {
		op := p.advance().Value
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.Binary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ir.Object, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOperator("/") || p.isOperator("%") || p.valueProducingStarIsMultiply() {
		op := "*"
		if !p.isSymbol("*") {
			op = p.advance().Value
		} else {
			p.advance()
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = expr.Binary(op, left, right)
	}
	return left, nil
}

// valueProducingStarIsMultiply reports whether the current '*' token
// should be consumed as multiplication: per spec.md §4.8, only when
// preceded by a value-producing token (i.e. we're mid-expression here,
// so any '*' reached by parseMultiplicative already is one).
func (p *parser) valueProducingStarIsMultiply() bool {
	return p.isSymbol("*")
}

func (p *parser) parseUnary() (ir.Object, error) {
	if p.isOperator("-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary("-", operand), nil
	}
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary("NOT", operand), nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (ir.Object, error) {
	t := p.peek()

	switch {
	case t.Kind == token.STRING || t.Kind == token.NUMBER || t.Kind == token.BOOLEAN || t.Kind == token.NULL:
		p.advance()
		v, err := literalToken(t)
		if err != nil {
			return nil, err
		}
		return expr.Literal(v), nil

	case p.isSymbol("("):
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.isKeyword("CASE"):
		return p.parseCase()

	case t.Kind == token.IDENTIFIER || (t.Kind == token.KEYWORD && isFunctionKeyword(t.Value)):
		return p.parseIdentifierOrCall()

	default:
		return nil, &ParseError{Message: "expected expression", Pos: t.Pos}
	}
}

func isFunctionKeyword(v string) bool {
	switch strings.ToUpper(v) {
	case "COUNT", "SUM", "AVG", "MIN", "MAX", "IIF":
		return true
	default:
		return false
	}
}

func (p *parser) parseIdentifierOrCall() (ir.Object, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if p.isKeyword("IIF") {
		// handled via generic call path below; kept for clarity of spec mapping
	}

	if p.isSymbol("(") {
		p.advance()
		var args []ir.Object
		if strings.EqualFold(name, "COUNT") && p.isSymbol("*") {
			p.advance()
			args = append(args, expr.Column("*"))
		} else if !p.isSymbol(")") {
			for {
				// DISTINCT inside COUNT(DISTINCT col) is consumed but not modeled
				// as a separate arg; the aggregate step parser detects DISTINCT.
				if p.isKeyword("DISTINCT") {
					p.advance()
				}
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if !p.consumeSymbol(",") {
					break
				}
			}
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		if strings.EqualFold(name, "IIF") {
			if len(args) != 3 {
				return nil, &ParseError{Message: "IIF requires 3 arguments", Pos: p.peek().Pos}
			}
			return ir.Object{
				"kind": ir.Text(expr.KindCase),
				"when": ir.Array{ir.Object{"cond": args[0], "then": args[1]}},
				"else": args[2],
			}, nil
		}
		return expr.Call(strings.ToUpper(name), args...), nil
	}

	// qualified column: table.col
	if p.isSymbol(".") {
		p.advance()
		col, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return expr.Column(name + "." + col), nil
	}

	return expr.Column(name), nil
}

func (p *parser) parseCase() (ir.Object, error) {
	p.advance() // CASE
	node := ir.Object{"kind": ir.Text(expr.KindCase)}
	var whens ir.Array
	for p.isKeyword("WHEN") {
		p.advance()
		cond, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, ir.Object{"cond": cond, "then": then})
	}
	node["when"] = whens
	if p.consumeKeyword("ELSE") {
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node["else"] = els
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseWhereExpr parses the boolean condition grammar: OR / AND / NOT /
// comparison, with leaves for IS [NOT] NULL, [NOT] IN, [NOT] LIKE,
// [NOT] BETWEEN, and standard comparisons.
func (p *parser) parseWhereExpr() (ir.Object, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ir.Object, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Binary("OR", left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (ir.Object, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.Binary("AND", left, right)
	}
	return left, nil
}

func (p *parser) parseNot() (ir.Object, error) {
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.Unary("NOT", operand), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ir.Object, error) {
	if p.isKeyword("EXISTS") {
		p.advance()
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		sub := p.captureUntilMatchingParen()
		return ir.Object{"kind": ir.Text(expr.KindExists), "subquery": ir.Text(restOfSQL(sub))}, nil
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	negate := false
	if p.isKeyword("NOT") {
		p.advance()
		negate = true
	}

	switch {
	case p.isKeyword("IS"):
		p.advance()
		innerNegate := false
		if p.isKeyword("NOT") {
			p.advance()
			innerNegate = true
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		node := ir.Object{"kind": ir.Text(expr.KindIsNull), "operand": left, "negate": ir.Bool(innerNegate)}
		return node, nil

	case p.isKeyword("IN"):
		p.advance()
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		if p.isKeyword("SELECT") {
			sub := p.captureUntilMatchingParen()
			return wrapNegate(ir.Object{"kind": ir.Text(expr.KindInSubquery), "operand": left, "subquery": ir.Text(restOfSQL(sub))}, negate), nil
		}
		var values ir.Array
		if !p.isSymbol(")") {
			for {
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				if !p.consumeSymbol(",") {
					break
				}
			}
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return wrapNegate(ir.Object{"kind": ir.Text(expr.KindInList), "operand": left, "values": values}, negate), nil

	case p.isKeyword("LIKE") || p.isKeyword("ILIKE"):
		kw := strings.ToUpper(p.advance().Value)
		pattern, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return wrapNegate(ir.Object{"kind": ir.Text(expr.KindLike), "caseInsensitive": ir.Bool(kw == "ILIKE"), "operand": left, "pattern": pattern}, negate), nil

	case p.isKeyword("BETWEEN"):
		p.advance()
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		expanded := expr.Binary("AND", expr.Binary(">=", left, low), expr.Binary("<=", left, high))
		return wrapNegate(expanded, negate), nil

	case isComparisonOp(p.peek()):
		op := p.advance().Value
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cmp := expr.Binary(op, left, right)
		return wrapNegate(cmp, negate), nil

	default:
		if negate {
			return expr.Unary("NOT", left), nil
		}
		return left, nil
	}
}

func wrapNegate(node ir.Object, negate bool) ir.Object {
	if !negate {
		return node
	}
	return expr.Unary("NOT", node)
}

func isComparisonOp(t token.Token) bool {
	if t.Kind != token.OPERATOR {
		return false
	}
	switch t.Value {
	case "=", "!=", "<>", "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}

// captureUntilMatchingParen returns the tokens up to (not including) the
// matching closing paren, consuming it. The caller has already consumed
// the opening paren.
func (p *parser) captureUntilMatchingParen() []token.Token {
	depth := 1
	start := p.pos
	for !p.done() {
		if p.isSymbol("(") {
			depth++
		} else if p.isSymbol(")") {
			depth--
			if depth == 0 {
				end := p.pos
				p.advance()
				return p.toks[start:end]
			}
		}
		p.advance()
	}
	return p.toks[start:p.pos]
}
