package translate

import (
	"math/big"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/opcode"
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// valueExpr is the subset of test_driver.ValueExpr's surface this package
// relies on: a literal carries a Go-native datum reachable through Kind's
// GetValue, the same duck-typed access smf's
// mysql.Parser.exprToString takes to ast.ExprNode.Restore for default-value
// text, generalized here to a typed Go value instead of re-serialized SQL.
type valueExpr interface {
	tidb.ExprNode
	GetValue() any
}

func translateExpr(n tidb.ExprNode) (eng.Expr, error) {
	switch e := n.(type) {
	case *tidb.ColumnNameExpr:
		return &eng.Column{Table: e.Name.Table.O, Name: e.Name.Name.O}, nil
	case *tidb.ParenthesesExpr:
		return translateExpr(e.Expr)
	case *tidb.BinaryOperationExpr:
		return translateBinary(e)
	case *tidb.UnaryOperationExpr:
		return translateUnary(e)
	case *tidb.IsNullExpr:
		return translateIsNull(e)
	case *tidb.IsTruthExpr:
		return translateIsTruth(e)
	case *tidb.BetweenExpr:
		return translateBetween(e)
	case *tidb.PatternInExpr:
		return translateIn(e)
	case *tidb.PatternLikeOrIlikeExpr:
		return translateLike(e)
	case *tidb.FuncCallExpr:
		return translateFuncCall(e)
	case *tidb.AggregateFuncExpr:
		return translateAggregate(e)
	case *tidb.CaseExpr:
		return translateCase(e)
	case *tidb.SubqueryExpr:
		return translateScalarSubquery(e)
	case *tidb.ExistsSubqueryExpr:
		return translateExists(e)
	case valueExpr:
		return translateLiteral(e)
	default:
		return nil, errs.Translate("unsupported expression kind %T", n)
	}
}

func translateLiteral(e valueExpr) (eng.Expr, error) {
	v, err := goValueToValue(e.GetValue())
	if err != nil {
		return nil, err
	}
	return &eng.Literal{Value: v}, nil
}

func goValueToValue(gv any) (value.Value, error) {
	switch x := gv.(type) {
	case nil:
		return value.Null{}, nil
	case int64:
		return value.I64(x), nil
	case uint64:
		return value.U64(x), nil
	case float32:
		return value.F32(x), nil
	case float64:
		return value.F64(x), nil
	case string:
		return value.Str(x), nil
	case []byte:
		return value.Bytea(x), nil
	case bool:
		return value.Bool(x), nil
	case *big.Int:
		return value.NewI128(x), nil
	default:
		// Decimal/date/time/duration literals surface through a String()
		// method on TiDB's internal mysql.Decimal/mysql.Time wrappers; this
		// package never imports those private types, so it goes through
		// their textual form and the engine's own parser instead, the way
		// smf's mysql.Parser.exprToString falls back to SQL text for any
		// constant it doesn't special-case: text that parses as a decimal
		// becomes a Decimal, any other text a Str.
		if s, ok := stringer(x); ok {
			if d, err := value.Cast(value.Str(s), value.KindDecimal); err == nil {
				return d, nil
			}
			return value.Str(s), nil
		}
		return nil, errs.Translate("unsupported literal Go type %T", gv)
	}
}

func stringer(v any) (string, bool) {
	type strfmt interface{ String() string }
	if s, ok := v.(strfmt); ok {
		return s.String(), true
	}
	return "", false
}

func translateBinary(e *tidb.BinaryOperationExpr) (eng.Expr, error) {
	l, err := translateExpr(e.L)
	if err != nil {
		return nil, err
	}
	r, err := translateExpr(e.R)
	if err != nil {
		return nil, err
	}
	op, err := binaryOp(e.Op)
	if err != nil {
		return nil, err
	}
	return &eng.BinaryExpr{Op: op, Left: l, Right: r}, nil
}

func binaryOp(op opcode.Op) (eng.BinaryOp, error) {
	switch op {
	case opcode.EQ:
		return eng.OpEq, nil
	case opcode.NE:
		return eng.OpNotEq, nil
	case opcode.LT:
		return eng.OpLt, nil
	case opcode.LE:
		return eng.OpLtEq, nil
	case opcode.GT:
		return eng.OpGt, nil
	case opcode.GE:
		return eng.OpGtEq, nil
	case opcode.LogicAnd:
		return eng.OpAnd, nil
	case opcode.LogicOr:
		return eng.OpOr, nil
	case opcode.Plus:
		return eng.OpPlus, nil
	case opcode.Minus:
		return eng.OpMinus, nil
	case opcode.Mul:
		return eng.OpMul, nil
	case opcode.Div, opcode.IntDiv:
		return eng.OpDiv, nil
	case opcode.Mod:
		return eng.OpMod, nil
	default:
		return 0, errs.Translate("unsupported binary operator %v", op)
	}
}

func translateUnary(e *tidb.UnaryOperationExpr) (eng.Expr, error) {
	v, err := translateExpr(e.V)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case opcode.Not, opcode.Not2:
		return &eng.UnaryExpr{Op: eng.OpNot, Operand: v}, nil
	case opcode.Minus:
		return &eng.UnaryExpr{Op: eng.OpNeg, Operand: v}, nil
	default:
		return nil, errs.Translate("unsupported unary operator %v", e.Op)
	}
}

func translateIsNull(e *tidb.IsNullExpr) (eng.Expr, error) {
	v, err := translateExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	op := eng.OpIsNull
	if e.Not {
		op = eng.OpIsNotNull
	}
	return &eng.UnaryExpr{Op: op, Operand: v}, nil
}

// translateIsTruth handles "expr IS [NOT] TRUE/FALSE" by desugaring into an
// equality comparison against a boolean literal, since the engine AST has
// no dedicated IS TRUTH node.
func translateIsTruth(e *tidb.IsTruthExpr) (eng.Expr, error) {
	v, err := translateExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	lit := &eng.Literal{Value: value.Bool(e.True != 0)}
	cmp := eng.Expr(&eng.BinaryExpr{Op: eng.OpEq, Left: v, Right: lit})
	if e.Not {
		cmp = &eng.UnaryExpr{Op: eng.OpNot, Operand: cmp}
	}
	return cmp, nil
}

func translateBetween(e *tidb.BetweenExpr) (eng.Expr, error) {
	operand, err := translateExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	low, err := translateExpr(e.Left)
	if err != nil {
		return nil, err
	}
	high, err := translateExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return &eng.Between{Operand: operand, Low: low, High: high, Not: e.Not}, nil
}

func translateIn(e *tidb.PatternInExpr) (eng.Expr, error) {
	operand, err := translateExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	if e.Sel != nil {
		q, err := subqueryOf(e.Sel)
		if err != nil {
			return nil, err
		}
		return &eng.InSubquery{Operand: operand, Subquery: q, Not: e.Not}, nil
	}
	items := make([]eng.Expr, 0, len(e.List))
	for _, it := range e.List {
		v, err := translateExpr(it)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return &eng.InList{Operand: operand, Items: items, Not: e.Not}, nil
}

func translateLike(e *tidb.PatternLikeOrIlikeExpr) (eng.Expr, error) {
	operand, err := translateExpr(e.Expr)
	if err != nil {
		return nil, err
	}
	pattern, err := translateExpr(e.Pattern)
	if err != nil {
		return nil, err
	}
	op := eng.OpLike
	if !e.IsLike {
		op = eng.OpILike
	}
	cmp := eng.Expr(&eng.BinaryExpr{Op: op, Left: operand, Right: pattern})
	if e.Not {
		cmp = &eng.UnaryExpr{Op: eng.OpNot, Operand: cmp}
	}
	return cmp, nil
}

func translateFuncCall(e *tidb.FuncCallExpr) (eng.Expr, error) {
	name := strings.ToUpper(e.FnName.O)
	if name == "EXTRACT" {
		return translateExtract(e)
	}
	args := make([]eng.Expr, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := translateExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if name == "CAST" || name == "CONVERT" {
		return nil, errs.Translate("use CAST(expr AS type) syntax")
	}
	return &eng.FunctionCall{Name: name, Args: args}, nil
}

// translateExtract handles EXTRACT(field FROM value): TiDB parses the unit
// keyword as a leading *ast.TimeUnitExpr argument rather than a plain
// identifier.
func translateExtract(e *tidb.FuncCallExpr) (eng.Expr, error) {
	if len(e.Args) != 2 {
		return nil, errs.Translate("EXTRACT requires exactly field and value operands")
	}
	unit, ok := e.Args[0].(*tidb.TimeUnitExpr)
	if !ok {
		return nil, errs.Translate("EXTRACT's first operand must be a time unit keyword")
	}
	operand, err := translateExpr(e.Args[1])
	if err != nil {
		return nil, err
	}
	return &eng.Extract{Field: strings.ToUpper(unit.Unit.String()), Operand: operand}, nil
}

func translateAggregate(e *tidb.AggregateFuncExpr) (eng.Expr, error) {
	name := strings.ToUpper(e.F)
	fn, ok := aggregateFunc(name)
	if !ok {
		return nil, errs.Translate("unsupported aggregate function %q", e.F)
	}
	if fn == eng.AggCount && len(e.Args) == 1 && isStarArg(e.Args[0]) {
		return &eng.Aggregate{Func: eng.AggCount, Operand: nil, Distinct: e.Distinct}, nil
	}
	if len(e.Args) != 1 {
		return nil, errs.Translate("aggregate function %q takes exactly one argument", e.F)
	}
	operand, err := translateExpr(e.Args[0])
	if err != nil {
		return nil, err
	}
	return &eng.Aggregate{Func: fn, Operand: operand, Distinct: e.Distinct}, nil
}

// isStarArg recognizes "COUNT(*)"'s argument, which TiDB parses as a bare
// ColumnNameExpr naming "*" rather than a distinguished AST node.
func isStarArg(e tidb.ExprNode) bool {
	col, ok := e.(*tidb.ColumnNameExpr)
	return ok && col.Name != nil && col.Name.Name.O == "*"
}

func aggregateFunc(name string) (eng.AggregateFunc, bool) {
	switch name {
	case "COUNT":
		return eng.AggCount, true
	case "SUM":
		return eng.AggSum, true
	case "AVG":
		return eng.AggAvg, true
	case "MIN":
		return eng.AggMin, true
	case "MAX":
		return eng.AggMax, true
	default:
		return 0, false
	}
}

func translateCase(e *tidb.CaseExpr) (eng.Expr, error) {
	c := &eng.Case{}
	if e.Value != nil {
		v, err := translateExpr(e.Value)
		if err != nil {
			return nil, err
		}
		c.Operand = v
	}
	for _, w := range e.WhenClauses {
		cond, err := translateExpr(w.Expr)
		if err != nil {
			return nil, err
		}
		res, err := translateExpr(w.Result)
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, eng.WhenClause{Condition: cond, Result: res})
	}
	if e.ElseClause != nil {
		v, err := translateExpr(e.ElseClause)
		if err != nil {
			return nil, err
		}
		c.Else = v
	}
	return c, nil
}

func subqueryOf(e *tidb.SubqueryExpr) (*eng.Query, error) {
	sel, ok := e.Query.(*tidb.SelectStmt)
	if !ok {
		if setOpr, ok := e.Query.(*tidb.SetOprStmt); ok {
			return translateQueryFromSetOpr(setOpr)
		}
		return nil, errs.Translate("unsupported subquery body %T", e.Query)
	}
	return translateQueryFromSelect(sel)
}

func translateScalarSubquery(e *tidb.SubqueryExpr) (eng.Expr, error) {
	q, err := subqueryOf(e)
	if err != nil {
		return nil, err
	}
	return &eng.ScalarSubquery{Query: q}, nil
}

func translateExists(e *tidb.ExistsSubqueryExpr) (eng.Expr, error) {
	sub, ok := e.Sel.(*tidb.SubqueryExpr)
	if !ok {
		return nil, errs.Translate("EXISTS requires a subquery operand")
	}
	q, err := subqueryOf(sub)
	if err != nil {
		return nil, err
	}
	return &eng.Exists{Subquery: q, Not: e.Not}, nil
}
