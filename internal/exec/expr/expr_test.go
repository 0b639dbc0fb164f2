package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nysql/internal/ir"
)

func TestEvalLiteral(t *testing.T) {
	v, err := Eval(Literal(ir.Int(5)), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5), v)
}

func TestEvalColumn(t *testing.T) {
	row := Row{"name": ir.Text("alice")}
	v, err := Eval(Column("name"), row)
	require.NoError(t, err)
	assert.Equal(t, ir.Text("alice"), v)
}

func TestEvalColumnQualifiedFallsBackToBare(t *testing.T) {
	row := Row{"name": ir.Text("alice")}
	v, err := Eval(Column("t.name"), row)
	require.NoError(t, err)
	assert.Equal(t, ir.Text("alice"), v)
}

func TestEvalColumnMissingIsNull(t *testing.T) {
	v, err := Eval(Column("nope"), Row{})
	require.NoError(t, err)
	assert.True(t, ir.IsNull(v))
}

func TestEvalArithmetic(t *testing.T) {
	v, err := Eval(Binary("+", Literal(ir.Int(2)), Literal(ir.Int(3))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5), v)
}

func TestEvalArithmeticPromotesToFloat(t *testing.T) {
	v, err := Eval(Binary("+", Literal(ir.Int(2)), Literal(ir.Float(0.5))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Float(2.5), v)
}

func TestEvalDivisionByZeroIsNull(t *testing.T) {
	v, err := Eval(Binary("/", Literal(ir.Int(1)), Literal(ir.Int(0))), Row{})
	require.NoError(t, err)
	assert.True(t, ir.IsNull(v))
}

func TestEvalComparison(t *testing.T) {
	v, err := Eval(Binary("<", Literal(ir.Int(1)), Literal(ir.Int(2))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Bool(true), v)
}

func TestEvalConcat(t *testing.T) {
	v, err := Eval(Binary("||", Literal(ir.Text("a")), Literal(ir.Text("b"))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Text("ab"), v)
}

func TestEvalAndOr(t *testing.T) {
	v, err := Eval(Binary("AND", Literal(ir.Bool(true)), Literal(ir.Bool(false))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Bool(false), v)

	v, err = Eval(Binary("OR", Literal(ir.Bool(true)), Literal(ir.Bool(false))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Bool(true), v)
}

func TestEvalUnaryNot(t *testing.T) {
	v, err := Eval(Unary("NOT", Literal(ir.Bool(false))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Bool(true), v)
}

func TestEvalUnaryMinus(t *testing.T) {
	v, err := Eval(Unary("-", Literal(ir.Int(5))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(-5), v)
}

func TestEvalCallCoalesce(t *testing.T) {
	v, err := Eval(Call("COALESCE", Literal(ir.Null{}), Literal(ir.Int(7))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(7), v)
}

func TestEvalCallUpperLower(t *testing.T) {
	v, err := Eval(Call("UPPER", Literal(ir.Text("abc"))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Text("ABC"), v)

	v, err = Eval(Call("LOWER", Literal(ir.Text("ABC"))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Text("abc"), v)
}

func TestEvalCallIIF(t *testing.T) {
	v, err := Eval(Call("IIF", Literal(ir.Bool(true)), Literal(ir.Int(1)), Literal(ir.Int(2))), Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(1), v)
}

func TestEvalCase(t *testing.T) {
	node := ir.Object{
		"kind": ir.Text(KindCase),
		"when": ir.Array{
			ir.Object{"cond": Literal(ir.Bool(false)), "then": Literal(ir.Int(1))},
			ir.Object{"cond": Literal(ir.Bool(true)), "then": Literal(ir.Int(2))},
		},
		"else": Literal(ir.Int(3)),
	}
	v, err := Eval(node, Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(2), v)
}

func TestEvalCaseFallsToElse(t *testing.T) {
	node := ir.Object{
		"kind": ir.Text(KindCase),
		"when": ir.Array{
			ir.Object{"cond": Literal(ir.Bool(false)), "then": Literal(ir.Int(1))},
		},
		"else": Literal(ir.Int(9)),
	}
	v, err := Eval(node, Row{})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(9), v)
}
