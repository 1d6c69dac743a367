// Package executor evaluates scalar expressions and drives the relational
// operator pipeline (scan -> join -> where -> group/having -> project ->
// order by -> offset/limit, plus INSERT/UPDATE/DELETE/DDL dispatch) over a
// storage.Store. Dispatch is by concrete AST node type, the same
// switch-on-concrete-type idiom smf's apply.StatementAnalyzer uses to
// classify a parsed migration statement (internal/apply/analyzer.go).
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// Env supplies column values visible to an expression: the current row of
// each table in scope, addressed by table alias (or table name when
// unaliased).
type Env struct {
	Row  map[string]map[string]value.Value
	Funcs FuncLookup
}

// FuncLookup resolves a user-defined function's parameters and body,
// exposed as an interface so executor doesn't import internal/storage
// directly just to read storage.CustomFunctionDef's Body field.
type FuncLookup func(ctx context.Context, name string) (params []string, body ast.Expr, ok bool, err error)

// Eval evaluates expr against env, implementing spec.md §4.3's rules: NULL
// propagates through arithmetic/comparison, LIKE/ILIKE pattern matching,
// CAST, CASE, index/arrow access, and EXTRACT. Subquery nodes (scalar, IN,
// and EXISTS) are not evaluated: Env carries no way to run a query, so they
// fail with an Evaluate error.
func Eval(ctx context.Context, env *Env, expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil
	case *ast.Column:
		return evalColumn(env, e)
	case *ast.BinaryExpr:
		return evalBinary(ctx, env, e)
	case *ast.UnaryExpr:
		return evalUnary(ctx, env, e)
	case *ast.Cast:
		v, err := Eval(ctx, env, e.Operand)
		if err != nil {
			return nil, err
		}
		return value.Cast(v, e.Target)
	case *ast.Case:
		return evalCase(ctx, env, e)
	case *ast.Index:
		return evalIndex(ctx, env, e)
	case *ast.Between:
		return evalBetween(ctx, env, e)
	case *ast.InList:
		return evalInList(ctx, env, e)
	case *ast.Extract:
		return evalExtract(ctx, env, e)
	case *ast.FunctionCall:
		return evalCall(ctx, env, e)
	case *ast.Wildcard:
		return nil, errs.Evaluate("\"*\" is not valid in this expression position")
	default:
		return nil, errs.Evaluate("unsupported expression node %T", expr)
	}
}

func evalColumn(env *Env, c *ast.Column) (value.Value, error) {
	if c.Table != "" {
		row, ok := env.Row[c.Table]
		if !ok {
			return nil, errs.Fetch("unknown table alias %q", c.Table)
		}
		v, ok := row[c.Name]
		if !ok {
			return nil, errs.Fetch("unknown column %q on %q", c.Name, c.Table)
		}
		return v, nil
	}
	var found value.Value
	count := 0
	for _, row := range env.Row {
		if v, ok := row[c.Name]; ok {
			found = v
			count++
		}
	}
	if count == 0 {
		return nil, errs.Fetch("unknown column %q", c.Name)
	}
	if count > 1 {
		return nil, errs.Fetch("ambiguous column %q", c.Name)
	}
	return found, nil
}

func evalUnary(ctx context.Context, env *Env, u *ast.UnaryExpr) (value.Value, error) {
	v, err := Eval(ctx, env, u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case ast.OpIsNull:
		return value.Bool(value.IsNull(v)), nil
	case ast.OpIsNotNull:
		return value.Bool(!value.IsNull(v)), nil
	case ast.OpNot:
		if value.IsNull(v) {
			return value.Null{}, nil
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, errs.Evaluate("NOT requires a boolean operand")
		}
		return value.Bool(!b), nil
	case ast.OpNeg:
		if value.IsNull(v) {
			return value.Null{}, nil
		}
		zero, err := zeroLike(v)
		if err != nil {
			return nil, err
		}
		return value.Arith(value.OpSub, zero, v)
	default:
		return nil, errs.Evaluate("unsupported unary operator")
	}
}

func zeroLike(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindDecimal:
		return value.NewDecimal(value.Decimal{}.D), nil
	case value.KindF32:
		return value.F32(0), nil
	case value.KindF64:
		return value.F64(0), nil
	default:
		return value.I64(0), nil
	}
}

func evalBinary(ctx context.Context, env *Env, b *ast.BinaryExpr) (value.Value, error) {
	if b.Op == ast.OpAnd || b.Op == ast.OpOr {
		return evalLogical(ctx, env, b)
	}
	l, err := Eval(ctx, env, b.Left)
	if err != nil {
		return nil, err
	}
	r, err := Eval(ctx, env, b.Right)
	if err != nil {
		return nil, err
	}
	if b.Op == ast.OpConcat {
		if value.IsNull(l) || value.IsNull(r) {
			return value.Null{}, nil
		}
		return value.Str(textValue(l) + textValue(r)), nil
	}
	if b.Op == ast.OpLike || b.Op == ast.OpILike {
		if value.IsNull(l) || value.IsNull(r) {
			return value.Null{}, nil
		}
		ls, ok1 := l.(value.Str)
		rs, ok2 := r.(value.Str)
		if !ok1 || !ok2 {
			return nil, errs.Evaluate("LIKE requires string operands")
		}
		return value.Bool(matchLike(string(ls), string(rs), b.Op == ast.OpILike)), nil
	}
	if value.IsNull(l) || value.IsNull(r) {
		return value.Null{}, nil
	}
	switch b.Op {
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		cmp, ok := value.PartialCompare(l, r)
		if !ok {
			return value.Null{}, nil
		}
		return value.Bool(compareResult(b.Op, cmp)), nil
	case ast.OpPlus:
		return value.Arith(value.OpAdd, l, r)
	case ast.OpMinus:
		return value.Arith(value.OpSub, l, r)
	case ast.OpMul:
		return value.Arith(value.OpMul, l, r)
	case ast.OpDiv:
		return value.Arith(value.OpDiv, l, r)
	case ast.OpMod:
		return value.Arith(value.OpMod, l, r)
	default:
		return nil, errs.Evaluate("unsupported binary operator")
	}
}

func compareResult(op ast.BinaryOp, cmp int) bool {
	switch op {
	case ast.OpEq:
		return cmp == 0
	case ast.OpNotEq:
		return cmp != 0
	case ast.OpLt:
		return cmp < 0
	case ast.OpLtEq:
		return cmp <= 0
	case ast.OpGt:
		return cmp > 0
	case ast.OpGtEq:
		return cmp >= 0
	default:
		return false
	}
}

// evalLogical implements SQL three-valued AND/OR short-circuiting: AND is
// false if either side is false even when the other is NULL; OR is true if
// either side is true even when the other is NULL.
func evalLogical(ctx context.Context, env *Env, b *ast.BinaryExpr) (value.Value, error) {
	l, err := Eval(ctx, env, b.Left)
	if err != nil {
		return nil, err
	}
	lb, lNull := asBoolOrNull(l)
	if b.Op == ast.OpAnd && !lNull && !bool(lb) {
		return value.Bool(false), nil
	}
	if b.Op == ast.OpOr && !lNull && bool(lb) {
		return value.Bool(true), nil
	}
	r, err := Eval(ctx, env, b.Right)
	if err != nil {
		return nil, err
	}
	rb, rNull := asBoolOrNull(r)
	if b.Op == ast.OpAnd {
		if !rNull && !bool(rb) {
			return value.Bool(false), nil
		}
		if lNull || rNull {
			return value.Null{}, nil
		}
		return value.Bool(true), nil
	}
	if !rNull && bool(rb) {
		return value.Bool(true), nil
	}
	if lNull || rNull {
		return value.Null{}, nil
	}
	return value.Bool(false), nil
}

func asBoolOrNull(v value.Value) (value.Bool, bool) {
	if value.IsNull(v) {
		return false, true
	}
	b, _ := v.(value.Bool)
	return b, false
}

func evalCase(ctx context.Context, env *Env, c *ast.Case) (value.Value, error) {
	var operand value.Value
	if c.Operand != nil {
		v, err := Eval(ctx, env, c.Operand)
		if err != nil {
			return nil, err
		}
		operand = v
	}
	for _, w := range c.Whens {
		if c.Operand != nil {
			cond, err := Eval(ctx, env, w.Condition)
			if err != nil {
				return nil, err
			}
			if value.IsNull(cond) || value.IsNull(operand) {
				continue
			}
			cmp, ok := value.PartialCompare(operand, cond)
			if ok && cmp == 0 {
				return Eval(ctx, env, w.Result)
			}
			continue
		}
		cond, err := Eval(ctx, env, w.Condition)
		if err != nil {
			return nil, err
		}
		b, null := asBoolOrNull(cond)
		if !null && bool(b) {
			return Eval(ctx, env, w.Result)
		}
	}
	if c.Else != nil {
		return Eval(ctx, env, c.Else)
	}
	return value.Null{}, nil
}

func evalIndex(ctx context.Context, env *Env, ix *ast.Index) (value.Value, error) {
	operand, err := Eval(ctx, env, ix.Operand)
	if err != nil {
		return nil, err
	}
	key, err := Eval(ctx, env, ix.Key)
	if err != nil {
		return nil, err
	}
	if value.IsNull(operand) || value.IsNull(key) {
		return value.Null{}, nil
	}
	if ix.Arrow {
		m, ok := operand.(value.Map)
		if !ok {
			return nil, errs.Evaluate("\"->\" requires a MAP operand")
		}
		ks, ok := key.(value.Str)
		if !ok {
			return nil, errs.Evaluate("\"->\" requires a string key")
		}
		v, ok := m.Get(string(ks))
		if !ok {
			return value.Null{}, nil
		}
		return v, nil
	}
	l, ok := operand.(value.List)
	if !ok {
		return nil, errs.Evaluate("\"[]\" requires a LIST operand")
	}
	idx, err := value.Cast(key, value.KindI64)
	if err != nil {
		return nil, err
	}
	i := int64(idx.(value.I64))
	if i < 0 || int(i) >= len(l.Items) {
		return value.Null{}, nil
	}
	return l.Items[i], nil
}

func evalBetween(ctx context.Context, env *Env, b *ast.Between) (value.Value, error) {
	v, err := Eval(ctx, env, b.Operand)
	if err != nil {
		return nil, err
	}
	lo, err := Eval(ctx, env, b.Low)
	if err != nil {
		return nil, err
	}
	hi, err := Eval(ctx, env, b.High)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) || value.IsNull(lo) || value.IsNull(hi) {
		return value.Null{}, nil
	}
	c1, ok1 := value.PartialCompare(v, lo)
	c2, ok2 := value.PartialCompare(v, hi)
	if !ok1 || !ok2 {
		return value.Null{}, nil
	}
	result := c1 >= 0 && c2 <= 0
	if b.Not {
		result = !result
	}
	return value.Bool(result), nil
}

func evalInList(ctx context.Context, env *Env, in *ast.InList) (value.Value, error) {
	v, err := Eval(ctx, env, in.Operand)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	sawNull := false
	for _, item := range in.Items {
		iv, err := Eval(ctx, env, item)
		if err != nil {
			return nil, err
		}
		if value.IsNull(iv) {
			sawNull = true
			continue
		}
		cmp, ok := value.PartialCompare(v, iv)
		if ok && cmp == 0 {
			return value.Bool(!in.Not), nil
		}
	}
	if sawNull {
		return value.Null{}, nil
	}
	return value.Bool(in.Not), nil
}

func evalExtract(ctx context.Context, env *Env, ex *ast.Extract) (value.Value, error) {
	v, err := Eval(ctx, env, ex.Operand)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	field := strings.ToUpper(ex.Field)
	switch t := v.(type) {
	case value.Date:
		return extractFromTime(field, t.T)
	case value.Timestamp:
		return extractFromTime(field, t.T)
	case value.Time:
		return extractFromTime(field, t.T)
	case value.Interval:
		switch field {
		case "MONTH":
			return value.I64(t.Months % 12), nil
		case "YEAR":
			return value.I64(t.Months / 12), nil
		default:
			return nil, errs.Evaluate("EXTRACT(%s FROM INTERVAL) is not supported", field)
		}
	default:
		return nil, errs.Evaluate("EXTRACT requires a temporal operand")
	}
}

func extractFromTime(field string, t time.Time) (value.Value, error) {
	switch field {
	case "YEAR":
		return value.I64(t.Year()), nil
	case "MONTH":
		return value.I64(int(t.Month())), nil
	case "DAY":
		return value.I64(t.Day()), nil
	case "HOUR":
		return value.I64(t.Hour()), nil
	case "MINUTE":
		return value.I64(t.Minute()), nil
	case "SECOND":
		return value.I64(t.Second()), nil
	default:
		return nil, errs.Evaluate("unsupported EXTRACT field %q", field)
	}
}
