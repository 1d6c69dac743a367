package executor

import (
	"context"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// group is one GROUP BY bucket: its key values and the member tuples.
type group struct {
	key     []value.Value
	members []Tuple
}

func groupTuples(ctx context.Context, funcs FuncLookup, tuples []Tuple, groupBy []ast.Expr) ([]group, error) {
	var groups []group
	for _, t := range tuples {
		key := make([]value.Value, len(groupBy))
		for i, e := range groupBy {
			v, err := Eval(ctx, t.env(funcs), e)
			if err != nil {
				return nil, err
			}
			key[i] = v
		}
		placed := false
		for gi := range groups {
			if keysEqual(groups[gi].key, key) {
				groups[gi].members = append(groups[gi].members, t)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{key: key, members: []Tuple{t}})
		}
	}
	if len(groups) == 0 && len(groupBy) == 0 {
		// A bare aggregate with no GROUP BY and no rows still yields one
		// group (e.g. SELECT COUNT(*) FROM empty_table returns 0, not zero
		// rows), matching standard SQL aggregate semantics.
		groups = []group{{}}
	}
	return groups, nil
}

func keysEqual(a, b []value.Value) bool {
	for i := range a {
		if value.IsNull(a[i]) && value.IsNull(b[i]) {
			continue
		}
		cmp, ok := value.PartialCompare(a[i], b[i])
		if !ok || cmp != 0 {
			return false
		}
	}
	return true
}

func projectGroups(ctx context.Context, funcs FuncLookup, groups []group, sel *ast.Select) ([]projectedTuple, []Column, error) {
	var out []projectedTuple
	for _, g := range groups {
		env := groupEnv(g, funcs)
		if sel.Having != nil {
			having := *sel.Having
			// Aggregate operands of a binary HAVING condition are computed over the group first.
			if b, ok := having.(*ast.BinaryExpr); ok {
				nb := *b
				for _, side := range []*ast.Expr{&nb.Left, &nb.Right} {
					if agg, ok := (*side).(*ast.Aggregate); ok {
						av, err := evalAggregate(ctx, g, env, agg)
						if err != nil {
							return nil, nil, err
						}
						*side = &ast.Literal{Value: av}
					}
				}
				having = &nb
			}
			v, err := Eval(ctx, env, having)
			if err != nil {
				return nil, nil, err
			}
			b, null := asBoolOrNull(v)
			if null || !bool(b) {
				continue
			}
		}
		proj := make(map[string]value.Value, len(sel.Projection))
		for i, item := range sel.Projection {
			if item.Wildcard {
				return nil, nil, errs.Evaluate("\"*\" is not valid in an aggregate query")
			}
			v, err := evalGroupExpr(ctx, g, env, *item.Expr)
			if err != nil {
				return nil, nil, err
			}
			name := item.Alias
			if name == "" {
				name = groupExprLabel(i, *item.Expr)
			}
			proj[name] = v
		}
		var rep Tuple
		if len(g.members) > 0 {
			rep = g.members[0]
		}
		out = append(out, projectedTuple{Tuple: rep, projected: proj})
	}
	return out, groupProjectionColumns(sel.Projection), nil
}

func groupExprLabel(i int, e ast.Expr) string {
	if agg, ok := e.(*ast.Aggregate); ok {
		return aggFuncName(agg.Func)
	}
	return exprLabel(e)
}

func groupProjectionColumns(items []ast.SelectItem) []Column {
	cols := make([]Column, 0, len(items))
	for i, item := range items {
		name := item.Alias
		if name == "" && item.Expr != nil {
			name = groupExprLabel(i, *item.Expr)
		}
		cols = append(cols, Column{Name: name})
	}
	return cols
}

func aggFuncName(f ast.AggregateFunc) string {
	switch f {
	case ast.AggCount:
		return "count"
	case ast.AggSum:
		return "sum"
	case ast.AggAvg:
		return "avg"
	case ast.AggMin:
		return "min"
	case ast.AggMax:
		return "max"
	default:
		return "?column?"
	}
}

// groupEnv exposes a representative member row (for non-aggregated
// GROUP BY key expressions referenced in the projection/HAVING) alongside
// aggregate evaluation, which is handled separately in evalGroupExpr since
// Eval itself has no notion of "the current group".
func groupEnv(g group, funcs FuncLookup) *Env {
	if len(g.members) == 0 {
		return &Env{Row: map[string]map[string]value.Value{}, Funcs: funcs}
	}
	return g.members[0].env(funcs)
}

func evalGroupExpr(ctx context.Context, g group, env *Env, e ast.Expr) (value.Value, error) {
	if agg, ok := e.(*ast.Aggregate); ok {
		return evalAggregate(ctx, g, env, agg)
	}
	if containsAggregate(e) {
		return nil, errs.Evaluate("nested aggregate expressions are not supported")
	}
	return Eval(ctx, env, e)
}

func evalAggregate(ctx context.Context, g group, funcsEnv *Env, agg *ast.Aggregate) (value.Value, error) {
	if agg.Func == ast.AggCount && agg.Operand == nil {
		return value.I64(int64(len(g.members))), nil
	}
	var vals []value.Value
	seen := make(map[string]bool)
	for _, m := range g.members {
		v, err := Eval(ctx, m.env(funcsEnv.Funcs), agg.Operand)
		if err != nil {
			return nil, err
		}
		if value.IsNull(v) {
			continue
		}
		if agg.Distinct {
			k := v.SQL()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		vals = append(vals, v)
	}
	switch agg.Func {
	case ast.AggCount:
		return value.I64(int64(len(vals))), nil
	case ast.AggSum:
		return aggSum(vals)
	case ast.AggAvg:
		return aggAvg(vals)
	case ast.AggMin:
		return aggMinMax(vals, true)
	case ast.AggMax:
		return aggMinMax(vals, false)
	default:
		return nil, errs.Evaluate("unsupported aggregate function")
	}
}

func aggSum(vals []value.Value) (value.Value, error) {
	if len(vals) == 0 {
		return value.Null{}, nil
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		var err error
		acc, err = value.Arith(value.OpAdd, acc, v)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// aggAvg computes SUM/COUNT with a Decimal intermediate for integer inputs
// and F64 for float inputs, the design decision recorded for spec.md §9's
// open question about AVG's result type.
func aggAvg(vals []value.Value) (value.Value, error) {
	if len(vals) == 0 {
		return value.Null{}, nil
	}
	sum, err := aggSum(vals)
	if err != nil {
		return nil, err
	}
	count := value.I64(int64(len(vals)))
	if sum.Kind().IsFloat() {
		return value.Arith(value.OpDiv, sum, count)
	}
	dec, err := value.Cast(sum, value.KindDecimal)
	if err != nil {
		return nil, err
	}
	return value.Arith(value.OpDiv, dec, count)
}

func aggMinMax(vals []value.Value, min bool) (value.Value, error) {
	if len(vals) == 0 {
		return value.Null{}, nil
	}
	best := vals[0]
	for _, v := range vals[1:] {
		cmp, ok := value.PartialCompare(v, best)
		if !ok {
			continue
		}
		if (min && cmp < 0) || (!min && cmp > 0) {
			best = v
		}
	}
	return best, nil
}
