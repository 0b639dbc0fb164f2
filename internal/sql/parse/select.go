package parse

import (
	"strings"

	"github.com/roach88/nysql/internal/event"
	"github.com/roach88/nysql/internal/exec/expr"
	"github.com/roach88/nysql/internal/ir"
	"github.com/roach88/nysql/internal/plan"
	"github.com/roach88/nysql/internal/sql/token"
)

// cteDef records a single WITH-clause definition while the statement is
// being parsed.
type cteDef struct {
	recursive     bool
	body          ir.Array // non-recursive: the full select pipeline
	baseCase      ir.Array // recursive: base case pipeline
	recursiveCase ir.Array // recursive: recursive case pipeline
	columns       []string
}

// parseSelect parses a full select statement: an optional WITH clause,
// one or more select cores joined by UNION/EXCEPT/INTERSECT, and a
// trailing ORDER BY / LIMIT applying to the combined result. It produces
// a "query_plan" event per spec.md §4.9.
func parseSelect(toks []token.Token, cause event.Event) event.Event {
	p := newParser(toks)
	ctes := map[string]*cteDef{}

	if p.isKeyword("WITH") {
		if err := parseWithClause(p, ctes); err != nil {
			return errorEvent(cause, err)
		}
	}

	pipeline, err := parseSetOpChain(p, ctes)
	if err != nil {
		return errorEvent(cause, err)
	}

	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return errorEvent(cause, err)
		}
		keys, err := parseOrderByKeys(p)
		if err != nil {
			return errorEvent(cause, err)
		}
		pipeline = append(pipeline, plan.Step(plan.StepOrderBy, ir.Object{"keys": keys}))
	}

	if p.isKeyword("LIMIT") {
		p.advance()
		limitTok := p.advance()
		limitVal, err := literalToken(limitTok)
		if err != nil {
			return errorEvent(cause, err)
		}
		offset := int64(0)
		if p.isKeyword("OFFSET") {
			p.advance()
			offTok := p.advance()
			offVal, err := literalToken(offTok)
			if err != nil {
				return errorEvent(cause, err)
			}
			if n, ok := offVal.(ir.Int); ok {
				offset = int64(n)
			}
		}
		limit := int64(-1)
		if n, ok := limitVal.(ir.Int); ok {
			limit = int64(n)
		}
		pipeline = append(pipeline, plan.Step(plan.StepLimit, ir.Object{"limit": ir.Int(limit), "offset": ir.Int(offset)}))
	}

	return event.New("query_plan", map[string]ir.Value{"pipeline": pipeline})
}

// ParseSelectPipeline tokenizes and parses a standalone SELECT statement
// (as found inside CREATE TABLE ... AS SELECT or INSERT ... SELECT) and
// returns just its pipeline, for gates that need to execute it directly
// rather than emit it as an event.
func ParseSelectPipeline(sql string) (ir.Array, error) {
	toks, err := token.Tokenize(sql)
	if err != nil {
		return nil, err
	}
	cause := event.New("select_subquery", nil)
	result := parseSelect(toks, cause)
	if result.Type == "error" {
		msg, _ := result.Get("message")
		return nil, &ParseError{Message: string(textOrEmpty(msg))}
	}
	pipeline, _ := result.Get("pipeline")
	arr, _ := pipeline.(ir.Array)
	return arr, nil
}

func textOrEmpty(v ir.Value) ir.Text {
	if t, ok := v.(ir.Text); ok {
		return t
	}
	return ir.Text("")
}

func parseWithClause(p *parser, ctes map[string]*cteDef) error {
	p.advance() // WITH
	for {
		recursive := false
		if p.isKeyword("RECURSIVE") {
			p.advance()
			recursive = true
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		var columns []string
		if p.isSymbol("(") {
			p.advance()
			for {
				c, err := p.expectIdentifier()
				if err != nil {
					return err
				}
				columns = append(columns, c)
				if !p.consumeSymbol(",") {
					break
				}
			}
			if err := p.expectSymbol(")"); err != nil {
				return err
			}
		}
		if err := p.expectKeyword("AS"); err != nil {
			return err
		}
		if err := p.expectSymbol("("); err != nil {
			return err
		}

		def := &cteDef{recursive: recursive, columns: columns}
		if recursive {
			base, recur, err := parseRecursiveBody(p, ctes, name)
			if err != nil {
				return err
			}
			def.baseCase = applyColumnAliases(base, columns)
			def.recursiveCase = applyColumnAliases(recur, columns)
		} else {
			body, err := parseSetOpChain(p, ctes)
			if err != nil {
				return err
			}
			def.body = applyColumnAliases(body, columns)
		}
		if err := p.expectSymbol(")"); err != nil {
			return err
		}
		ctes[name] = def

		if !p.consumeSymbol(",") {
			break
		}
	}
	return nil
}

// parseRecursiveBody parses "base-select UNION [ALL] recursive-select",
// where recursive-select is allowed to reference selfName via a
// table_scan{cteRef: selfName} step (resolved against the executor's
// per-iteration frontier rather than re-running the whole statement).
func parseRecursiveBody(p *parser, ctes map[string]*cteDef, selfName string) (ir.Array, ir.Array, error) {
	base, err := parseSelectCore(p, ctes, "")
	if err != nil {
		return nil, nil, err
	}
	if !p.isKeyword("UNION") {
		return nil, nil, &ParseError{Message: "expected UNION in recursive CTE body", Pos: p.peek().Pos}
	}
	p.advance()
	p.consumeKeyword("ALL")
	recur, err := parseSelectCore(p, ctes, selfName)
	if err != nil {
		return nil, nil, err
	}
	return base, recur, nil
}

// parseSetOpChain parses one select core, then any trailing
// UNION/EXCEPT/INTERSECT [ALL] legs, combining them left-to-right.
func parseSetOpChain(p *parser, ctes map[string]*cteDef) (ir.Array, error) {
	left, err := parseSelectCore(p, ctes, "")
	if err != nil {
		return nil, err
	}
	for p.isKeyword("UNION") || p.isKeyword("EXCEPT") || p.isKeyword("INTERSECT") {
		op := plan.SetUnion
		switch {
		case p.isKeyword("EXCEPT"):
			op = plan.SetExcept
		case p.isKeyword("INTERSECT"):
			op = plan.SetIntersect
		}
		p.advance()
		all := p.consumeKeyword("ALL")
		right, err := parseSelectCore(p, ctes, "")
		if err != nil {
			return nil, err
		}
		left = append(left, plan.Step(plan.StepUnion, ir.Object{
			"op":    ir.Text(op),
			"all":   ir.Bool(all),
			"right": right,
		}))
	}
	return left, nil
}

// parseSelectCore parses a single SELECT ... [FROM ...] [WHERE ...]
// [GROUP BY ...] [HAVING ...] without any trailing set-op/order/limit.
// selfRef, when non-empty, names the recursive CTE currently being
// defined so FROM references to it become a cteRef table_scan.
func parseSelectCore(p *parser, ctes map[string]*cteDef, selfRef string) (ir.Array, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	distinct := p.consumeKeyword("DISTINCT")
	p.consumeKeyword("ALL")

	cols, aggregates, windows, err := parseSelectList(p)
	if err != nil {
		return nil, err
	}

	var pipeline ir.Array
	if p.isKeyword("FROM") {
		p.advance()
		fromPipe, err := parseFromClause(p, ctes, selfRef)
		if err != nil {
			return nil, err
		}
		pipeline = fromPipe
	} else {
		pipeline = ir.Array{plan.Step(plan.StepVirtualRow, nil)}
	}

	if p.isKeyword("WHERE") {
		p.advance()
		cond, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, plan.Step(plan.StepFilter, ir.Object{"condition": cond}))
	}

	var groupBy ir.Array
	needsAggregate := len(aggregates) > 0
	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		needsAggregate = true
		for {
			name, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			if p.isSymbol(".") {
				p.advance()
				col, err := p.expectIdentifier()
				if err != nil {
					return nil, err
				}
				name = name + "." + col
			}
			groupBy = append(groupBy, ir.Text(name))
			if !p.consumeSymbol(",") {
				break
			}
		}
	}

	if needsAggregate {
		pipeline = append(pipeline, plan.Step(plan.StepAggregate, ir.Object{
			"groupBy":    groupBy,
			"aggregates": aggregates,
		}))
	}

	if p.isKeyword("HAVING") {
		p.advance()
		cond, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, plan.Step(plan.StepFilter, ir.Object{"condition": rewriteAggregateRefs(cond)}))
	}

	if len(windows) > 0 {
		pipeline = append(pipeline, plan.Step(plan.StepWindow, ir.Object{"functions": windows}))
	}

	if !cols.star {
		pipeline = append(pipeline, plan.Step(plan.StepProject, ir.Object{"columns": cols.list}))
	}

	if distinct {
		pipeline = append(pipeline, plan.Step(plan.StepDistinct, nil))
	}

	return pipeline, nil
}

type selectColumns struct {
	star bool
	list ir.Array
}

var aggregateFuncNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true, "GROUP_CONCAT": true,
}

// parseSelectList parses the column list between SELECT and FROM. Bare
// aggregate-function columns are routed to the aggregates list;
// "fn(...) OVER (...)" columns are routed to the windows list; everything
// else becomes a project column. All three are position-order-preserving
// within their own list, but the select list's original ordering across
// kinds is not reconstructed -- window/aggregate outputs are referenced
// by their alias from the project step that follows.
func parseSelectList(p *parser) (selectColumns, ir.Array, ir.Array, error) {
	var cols selectColumns
	var aggregates ir.Array
	var windows ir.Array

	for {
		if p.isSymbol("*") {
			p.advance()
			cols.star = true
			if !p.consumeSymbol(",") {
				break
			}
			continue
		}

		node, err := p.parseExpr()
		if err != nil {
			return cols, nil, nil, err
		}

		if p.isKeyword("OVER") {
			p.advance()
			if err := p.expectSymbol("("); err != nil {
				return cols, nil, nil, err
			}
			fnObj, alias, winErr := buildWindowSpec(p, node)
			if winErr != nil {
				return cols, nil, nil, winErr
			}
			alias = parseOptionalAlias(p, alias)
			fnObj["alias"] = ir.Text(alias)
			windows = append(windows, fnObj)
			cols.list = append(cols.list, ir.Object{"alias": ir.Text(alias), "expr": expr.Column(alias), "name": ir.Text(alias)})
			if !p.consumeSymbol(",") {
				break
			}
			continue
		}

		if name, argCol, distinctArg, sep, ok := asAggregateCall(node); ok {
			alias := parseOptionalAlias(p, "")
			if alias == "" {
				alias = strings.ToUpper(name) + "(" + argCol + ")"
			}
			aggregates = append(aggregates, ir.Object{
				"fn": ir.Text(strings.ToUpper(name)), "column": ir.Text(argCol),
				"alias": ir.Text(alias), "distinct": ir.Bool(distinctArg), "separator": ir.Text(sep),
			})
			cols.list = append(cols.list, ir.Object{"alias": ir.Text(alias), "expr": expr.Column(alias), "name": ir.Text(alias)})
			if !p.consumeSymbol(",") {
				break
			}
			continue
		}

		alias := parseOptionalAlias(p, "")
		colObj := ir.Object{"expr": node}
		if alias != "" {
			colObj["alias"] = ir.Text(alias)
		} else if name, ok := node["name"].(ir.Text); ok {
			colObj["name"] = name
		}
		cols.list = append(cols.list, colObj)

		if !p.consumeSymbol(",") {
			break
		}
	}

	return cols, aggregates, windows, nil
}

// parseOptionalAlias consumes an optional "[AS] alias" and returns it, or
// def if none is present.
func parseOptionalAlias(p *parser, def string) string {
	if p.isKeyword("AS") {
		p.advance()
		if p.peek().Kind == token.IDENTIFIER {
			return p.advance().Value
		}
		return def
	}
	if p.peek().Kind == token.IDENTIFIER {
		return p.advance().Value
	}
	return def
}

// asAggregateCall reports whether node is a bare call to an aggregate
// function, returning its name, argument column (bare name, or "*" / ""),
// whether DISTINCT was requested, and GROUP_CONCAT's separator.
func asAggregateCall(node ir.Object) (name, column string, distinct bool, separator string, ok bool) {
	kind, _ := node["kind"].(ir.Text)
	if string(kind) != expr.KindCall {
		return "", "", false, "", false
	}
	fn, _ := node["name"].(ir.Text)
	if !aggregateFuncNames[strings.ToUpper(string(fn))] {
		return "", "", false, "", false
	}
	args, _ := node["args"].(ir.Array)
	separator = ", "
	if len(args) == 0 {
		return string(fn), "", false, separator, true
	}
	first, ok2 := args[0].(ir.Object)
	if !ok2 {
		return string(fn), "", false, separator, true
	}
	if akind, _ := first["kind"].(ir.Text); string(akind) == expr.KindColumn {
		colName, _ := first["name"].(ir.Text)
		return string(fn), string(colName), false, separator, true
	}
	return string(fn), "", false, separator, true
}

func buildWindowSpec(p *parser, fnNode ir.Object) (ir.Object, string, error) {
	fn, _ := fnNode["name"].(ir.Text)
	args, _ := fnNode["args"].(ir.Array)
	var col ir.Text
	if len(args) > 0 {
		if a, ok := args[0].(ir.Object); ok {
			if c, ok := a["name"].(ir.Text); ok {
				col = c
			}
		}
	}

	fnObj := ir.Object{"fn": ir.Text(strings.ToUpper(string(fn))), "column": col}

	if p.isKeyword("PARTITION") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, "", err
		}
		var parts ir.Array
		for {
			name, err := p.expectIdentifier()
			if err != nil {
				return nil, "", err
			}
			parts = append(parts, ir.Text(name))
			if !p.consumeSymbol(",") {
				break
			}
		}
		fnObj["partitionBy"] = parts
	}

	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, "", err
		}
		keys, err := parseOrderByKeys(p)
		if err != nil {
			return nil, "", err
		}
		fnObj["orderBy"] = keys
	}

	if err := p.expectSymbol(")"); err != nil {
		return nil, "", err
	}
	return fnObj, "", nil
}

func parseOrderByKeys(p *parser) (ir.Array, error) {
	var keys ir.Array
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if p.isSymbol(".") {
			p.advance()
			col, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			name = name + "." + col
		}
		desc := false
		if p.isKeyword("DESC") {
			p.advance()
			desc = true
		} else {
			p.consumeKeyword("ASC")
		}
		nullsFirst := desc
		if p.isKeyword("NULLS") {
			p.advance()
			if p.isKeyword("FIRST") {
				p.advance()
				nullsFirst = true
			} else if p.isKeyword("LAST") {
				p.advance()
				nullsFirst = false
			}
		}
		keys = append(keys, ir.Object{"column": ir.Text(name), "desc": ir.Bool(desc), "nullsFirst": ir.Bool(nullsFirst)})
		if !p.consumeSymbol(",") {
			break
		}
	}
	return keys, nil
}

// rewriteAggregateRefs rewrites bare aggregate-call nodes inside a HAVING
// condition tree into column references matching the synthetic
// "FN(col)" keys the aggregate step attaches to each group's result row.
func rewriteAggregateRefs(node ir.Object) ir.Object {
	kind, _ := node["kind"].(ir.Text)
	switch string(kind) {
	case expr.KindCall:
		if name, col, _, _, ok := asAggregateCall(node); ok {
			return expr.Column(strings.ToUpper(name) + "(" + col + ")")
		}
		return node
	case expr.KindBinary:
		left, _ := node["left"].(ir.Object)
		right, _ := node["right"].(ir.Object)
		node["left"] = rewriteAggregateRefs(left)
		node["right"] = rewriteAggregateRefs(right)
		return node
	case expr.KindUnary:
		operand, _ := node["operand"].(ir.Object)
		node["operand"] = rewriteAggregateRefs(operand)
		return node
	default:
		return node
	}
}

func tablePrefix(table string) string {
	return "db/" + table + "/rows/"
}

// parseFromClause parses the table references and joins following FROM,
// returning a pipeline whose final step yields the joined row set.
func parseFromClause(p *parser, ctes map[string]*cteDef, selfRef string) (ir.Array, error) {
	pipeline, err := parseTableRef(p, ctes, selfRef)
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.isSymbol(","):
			p.advance()
			right, err := parseTableRef(p, ctes, selfRef)
			if err != nil {
				return nil, err
			}
			pipeline = append(pipeline, plan.Step(plan.StepJoin, ir.Object{"type": ir.Text(plan.JoinCross), "right": right}))

		case isJoinKeyword(p):
			joinType, err := consumeJoinType(p)
			if err != nil {
				return nil, err
			}
			right, err := parseTableRef(p, ctes, selfRef)
			if err != nil {
				return nil, err
			}
			step := ir.Object{"type": ir.Text(joinType), "right": right}
			if joinType != plan.JoinCross {
				if err := p.expectKeyword("ON"); err != nil {
					return nil, err
				}
				cond, err := p.parseWhereExpr()
				if err != nil {
					return nil, err
				}
				step["on"] = cond
			}
			pipeline = append(pipeline, plan.Step(plan.StepJoin, step))

		default:
			return pipeline, nil
		}
	}
}

func isJoinKeyword(p *parser) bool {
	return p.isKeyword("JOIN") || p.isKeyword("INNER") || p.isKeyword("LEFT") ||
		p.isKeyword("RIGHT") || p.isKeyword("FULL") || p.isKeyword("CROSS")
}

func consumeJoinType(p *parser) (string, error) {
	joinType := plan.JoinInner
	switch {
	case p.isKeyword("INNER"):
		p.advance()
	case p.isKeyword("LEFT"):
		p.advance()
		joinType = plan.JoinLeft
		p.consumeKeyword("OUTER")
	case p.isKeyword("RIGHT"):
		p.advance()
		joinType = plan.JoinRight
		p.consumeKeyword("OUTER")
	case p.isKeyword("FULL"):
		p.advance()
		joinType = plan.JoinFull
		p.consumeKeyword("OUTER")
	case p.isKeyword("CROSS"):
		p.advance()
		joinType = plan.JoinCross
	}
	if err := p.expectKeyword("JOIN"); err != nil {
		return "", err
	}
	return joinType, nil
}

// parseTableRef parses one FROM-clause item: a base table, a CTE
// reference, or a parenthesized derived subquery, each with an optional
// alias.
func parseTableRef(p *parser, ctes map[string]*cteDef, selfRef string) (ir.Array, error) {
	if p.isSymbol("(") {
		p.advance()
		inner, err := parseSetOpChain(p, ctes)
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		alias := parseOptionalAlias(p, "")
		return ir.Array{plan.Step(plan.StepDerivedScan, ir.Object{"pipeline": inner, "alias": ir.Text(alias)})}, nil
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	alias := parseOptionalAlias(p, "")

	if name == selfRef {
		return ir.Array{plan.Step(plan.StepTableScan, ir.Object{"cteRef": ir.Text(name), "alias": ir.Text(alias)})}, nil
	}
	if def, ok := ctes[name]; ok {
		if def.recursive {
			return ir.Array{plan.Step(plan.StepDerivedScan, ir.Object{
				"recursive": ir.Bool(true), "cteName": ir.Text(name),
				"baseCase": def.baseCase, "recursiveCase": def.recursiveCase,
				"columns": columnsToArray(def.columns), "alias": ir.Text(alias),
			})}, nil
		}
		return ir.Array{plan.Step(plan.StepDerivedScan, ir.Object{"pipeline": def.body, "alias": ir.Text(alias)})}, nil
	}

	return ir.Array{plan.Step(plan.StepTableScan, ir.Object{"prefix": ir.Text(tablePrefix(name)), "alias": ir.Text(alias)})}, nil
}

// applyColumnAliases assigns a CTE's declared column names positionally
// onto its body's final project step, since once rows are materialized
// into maps the original select-list order is no longer recoverable.
// Done here, at parse time, where the project step's "columns" array
// still reflects source order.
func applyColumnAliases(pipeline ir.Array, columns []string) ir.Array {
	if len(columns) == 0 || len(pipeline) == 0 {
		return pipeline
	}
	last, ok := pipeline[len(pipeline)-1].(ir.Object)
	if !ok || plan.Type(last) != plan.StepProject {
		return pipeline
	}
	cols, _ := last["columns"].(ir.Array)
	for i := range cols {
		if i >= len(columns) {
			break
		}
		colObj, ok := cols[i].(ir.Object)
		if !ok {
			continue
		}
		colObj["alias"] = ir.Text(columns[i])
		cols[i] = colObj
	}
	return pipeline
}

func columnsToArray(cols []string) ir.Array {
	arr := make(ir.Array, len(cols))
	for i, c := range cols {
		arr[i] = ir.Text(c)
	}
	return arr
}
