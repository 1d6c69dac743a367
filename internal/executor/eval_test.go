package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/value"
)

func lit(v value.Value) ast.Expr { return &ast.Literal{Value: v} }

func col(table, name string) ast.Expr { return &ast.Column{Table: table, Name: name} }

func TestEvalBinaryArithmetic(t *testing.T) {
	e := &ast.BinaryExpr{Op: ast.OpPlus, Left: lit(value.I64(2)), Right: lit(value.I64(3))}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.Equal(t, value.I64(5), v)
}

func TestEvalComparisonNullPropagates(t *testing.T) {
	e := &ast.BinaryExpr{Op: ast.OpEq, Left: lit(value.Null{}), Right: lit(value.I64(1))}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.True(t, value.IsNull(v))
}

func TestEvalLogicalAndShortCircuitsOnFalse(t *testing.T) {
	e := &ast.BinaryExpr{Op: ast.OpAnd, Left: lit(value.Bool(false)), Right: lit(value.Null{})}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.Equal(t, value.Bool(false), v)
}

func TestEvalLogicalAndNullWithTrueIsNull(t *testing.T) {
	e := &ast.BinaryExpr{Op: ast.OpAnd, Left: lit(value.Bool(true)), Right: lit(value.Null{})}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.True(t, value.IsNull(v))
}

func TestEvalLogicalOrShortCircuitsOnTrue(t *testing.T) {
	e := &ast.BinaryExpr{Op: ast.OpOr, Left: lit(value.Bool(true)), Right: lit(value.Null{})}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestEvalColumnUnqualifiedResolvesAcrossTables(t *testing.T) {
	env := &Env{Row: map[string]map[string]value.Value{
		"a": {"id": value.I64(1)},
	}}
	v, err := Eval(context.Background(), env, col("", "id"))
	require.NoError(t, err)
	assert.Equal(t, value.I64(1), v)
}

func TestEvalColumnAmbiguousErrors(t *testing.T) {
	env := &Env{Row: map[string]map[string]value.Value{
		"a": {"id": value.I64(1)},
		"b": {"id": value.I64(2)},
	}}
	_, err := Eval(context.Background(), env, col("", "id"))
	assert.Error(t, err)
}

func TestEvalColumnUnknownAliasErrors(t *testing.T) {
	env := &Env{Row: map[string]map[string]value.Value{"a": {"id": value.I64(1)}}}
	_, err := Eval(context.Background(), env, col("b", "id"))
	assert.Error(t, err)
}

func TestEvalBetween(t *testing.T) {
	e := &ast.Between{Operand: lit(value.I64(5)), Low: lit(value.I64(1)), High: lit(value.I64(10))}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestEvalInListWithNullMember(t *testing.T) {
	e := &ast.InList{Operand: lit(value.I64(5)), Items: []ast.Expr{lit(value.Null{}), lit(value.I64(1))}}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.True(t, value.IsNull(v), "no matching member but a NULL present must yield NULL, not false")
}

func TestEvalCaseSimpleForm(t *testing.T) {
	e := &ast.Case{
		Operand: lit(value.I64(2)),
		Whens: []ast.WhenClause{
			{Condition: lit(value.I64(1)), Result: lit(value.Str("one"))},
			{Condition: lit(value.I64(2)), Result: lit(value.Str("two"))},
		},
		Else: lit(value.Str("other")),
	}
	v, err := Eval(context.Background(), &Env{}, e)
	require.NoError(t, err)
	assert.Equal(t, value.Str("two"), v)
}

func TestEvalWildcardRejectedAsExpression(t *testing.T) {
	_, err := Eval(context.Background(), &Env{}, &ast.Wildcard{})
	assert.Error(t, err)
}
