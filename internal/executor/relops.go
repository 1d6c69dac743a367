package executor

import (
	"context"
	"io"
	"sort"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/storage"
	"github.com/smflabs/sqlglue/internal/value"
)

// Tuple is one intermediate row flowing through the relational pipeline:
// one named-table-scoped column map per source table in scope.
type Tuple struct {
	Tables map[string]map[string]value.Value
}

func (t Tuple) env(funcs FuncLookup) *Env { return &Env{Row: t.Tables, Funcs: funcs} }

// tableCols records one FROM-clause source's alias and the ordered column
// names it contributes, used to expand "*"/"table.*" projections and to
// report Result.Columns even when the tuple set is empty. Kept as an
// ordered slice (not a map) so multi-table wildcard expansion has a
// deterministic, repeatable column order across every row of a result.
type tableCols struct {
	alias string
	names []string
}

// Column is one named output column of a result set.
type Column struct {
	Name string
}

// Result is the tabular output of executing a Query.
type Result struct {
	Columns []Column
	Rows    [][]value.Value
}

// ExecuteQuery runs a planned Query against store, implementing spec.md
// §4.4's relational pipeline in stage order.
func ExecuteQuery(ctx context.Context, store storage.Store, funcs FuncLookup, q *ast.Query) (*Result, error) {
	tuples, cols, err := execSetExpr(ctx, store, funcs, q.Body)
	if err != nil {
		return nil, err
	}
	if len(q.OrderBy) > 0 {
		// An unqualified name matching an output column (such as a projection
		// alias) sorts by the projected value; anything else is evaluated
		// against the source row.
		orderKey := func(t projectedTuple, e ast.Expr) value.Value {
			if c, ok := e.(*ast.Column); ok && c.Table == "" {
				if v, ok := t.projected[c.Name]; ok {
					return v
				}
			}
			v, _ := Eval(ctx, t.env(funcs), e)
			return v
		}
		sort.SliceStable(tuples, func(i, j int) bool {
			for _, ob := range q.OrderBy {
				vi := orderKey(tuples[i], ob.Expr)
				vj := orderKey(tuples[j], ob.Expr)
				c := value.OrderCompare(vi, vj)
				if !ob.Asc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	offset := int64(0)
	if q.Offset != nil {
		v, err := Eval(ctx, &Env{Funcs: funcs}, *q.Offset)
		if err != nil {
			return nil, err
		}
		offset, _ = asInt64(v)
	}
	limit := int64(-1)
	if q.Limit != nil {
		v, err := Eval(ctx, &Env{Funcs: funcs}, *q.Limit)
		if err != nil {
			return nil, err
		}
		limit, _ = asInt64(v)
	}
	if offset > int64(len(tuples)) {
		offset = int64(len(tuples))
	}
	tuples = tuples[offset:]
	if limit >= 0 && limit < int64(len(tuples)) {
		tuples = tuples[:limit]
	}
	rows := make([][]value.Value, len(tuples))
	for i, t := range tuples {
		row := make([]value.Value, len(cols))
		for j, c := range cols {
			row[j] = t.projected[c.Name]
		}
		rows[i] = row
	}
	return &Result{Columns: cols, Rows: rows}, nil
}

func asInt64(v value.Value) (int64, error) {
	iv, err := value.Cast(v, value.KindI64)
	if err != nil {
		return 0, err
	}
	return int64(iv.(value.I64)), nil
}

// projectedTuple pairs a source Tuple with its computed projection, so
// ORDER BY can reference either the original source columns or aliased
// projected columns.
type projectedTuple struct {
	Tuple
	projected map[string]value.Value
}

func execSetExpr(ctx context.Context, store storage.Store, funcs FuncLookup, se ast.SetExpr) ([]projectedTuple, []Column, error) {
	switch e := se.(type) {
	case *ast.Select:
		return execSelect(ctx, store, funcs, e)
	case *ast.Values:
		return execValues(e)
	case *ast.SetOp:
		left, cols, err := execSetExpr(ctx, store, funcs, e.Left)
		if err != nil {
			return nil, nil, err
		}
		right, _, err := execSetExpr(ctx, store, funcs, e.Right)
		if err != nil {
			return nil, nil, err
		}
		return applySetOp(e, left, right), cols, nil
	default:
		return nil, nil, errs.Evaluate("unsupported set expression")
	}
}

func execValues(v *ast.Values) ([]projectedTuple, []Column, error) {
	var cols []Column
	if len(v.Rows) > 0 {
		for i := range v.Rows[0] {
			cols = append(cols, Column{Name: "column" + itoa(i+1)})
		}
	}
	out := make([]projectedTuple, 0, len(v.Rows))
	for _, row := range v.Rows {
		proj := make(map[string]value.Value, len(row))
		for i, e := range row {
			lit, ok := e.(*ast.Literal)
			if !ok {
				return nil, nil, errs.Evaluate("VALUES rows must be literal")
			}
			proj[cols[i].Name] = lit.Value
		}
		out = append(out, projectedTuple{projected: proj})
	}
	return out, cols, nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func applySetOp(op *ast.SetOp, left, right []projectedTuple) []projectedTuple {
	combined := append(append([]projectedTuple(nil), left...), right...)
	switch op.Kind {
	case ast.SetOpUnion:
		if op.All {
			return combined
		}
		return dedup(combined)
	case ast.SetOpIntersect:
		return intersect(left, right, op.All)
	case ast.SetOpExcept:
		return except(left, right, op.All)
	default:
		return combined
	}
}

func rowKeyOf(t projectedTuple) string {
	s := ""
	for _, v := range t.projected {
		s += v.SQL() + "\x1f"
	}
	return s
}

func dedup(in []projectedTuple) []projectedTuple {
	seen := make(map[string]bool, len(in))
	out := make([]projectedTuple, 0, len(in))
	for _, t := range in {
		k := rowKeyOf(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

func intersect(left, right []projectedTuple, all bool) []projectedTuple {
	rset := make(map[string]bool, len(right))
	for _, t := range right {
		rset[rowKeyOf(t)] = true
	}
	out := make([]projectedTuple, 0)
	seen := make(map[string]bool)
	for _, t := range left {
		k := rowKeyOf(t)
		if rset[k] && (all || !seen[k]) {
			out = append(out, t)
			seen[k] = true
		}
	}
	return out
}

func except(left, right []projectedTuple, all bool) []projectedTuple {
	rset := make(map[string]bool, len(right))
	for _, t := range right {
		rset[rowKeyOf(t)] = true
	}
	out := make([]projectedTuple, 0)
	seen := make(map[string]bool)
	for _, t := range left {
		k := rowKeyOf(t)
		if !rset[k] && (all || !seen[k]) {
			out = append(out, t)
			seen[k] = true
		}
	}
	return out
}

func execSelect(ctx context.Context, store storage.Store, funcs FuncLookup, sel *ast.Select) ([]projectedTuple, []Column, error) {
	var tuples []Tuple
	var order []tableCols
	var err error
	if sel.From != nil {
		tuples, order, err = scanTableFactor(ctx, store, funcs, *sel.From)
		if err != nil {
			return nil, nil, err
		}
	} else {
		tuples = []Tuple{{Tables: map[string]map[string]value.Value{}}}
	}
	for _, j := range sel.Joins {
		tuples, order, err = applyJoin(ctx, store, funcs, tuples, order, j)
		if err != nil {
			return nil, nil, err
		}
	}
	if sel.Where != nil {
		tuples, err = filterTuples(ctx, funcs, tuples, *sel.Where)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(sel.GroupBy) > 0 || hasAggregate(sel.Projection) {
		groups, err := groupTuples(ctx, funcs, tuples, sel.GroupBy)
		if err != nil {
			return nil, nil, err
		}
		return projectGroups(ctx, funcs, groups, sel)
	}
	names := projectionNames(sel.Projection, order)
	out := make([]projectedTuple, len(tuples))
	for i, t := range tuples {
		proj, err := projectTuple(ctx, funcs, t, sel.Projection, order)
		if err != nil {
			return nil, nil, err
		}
		out[i] = projectedTuple{Tuple: t, projected: proj}
	}
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return out, cols, nil
}

func scanTableFactor(ctx context.Context, store storage.Store, funcs FuncLookup, tf ast.TableFactor) ([]Tuple, []tableCols, error) {
	alias := tf.Alias
	if alias == "" {
		alias = tf.Name
	}
	switch tf.Kind {
	case ast.TableNamed:
		sc, err := store.Schema(ctx, tf.Name)
		if err != nil {
			return nil, nil, err
		}
		names := make([]string, len(sc.Columns))
		for i, c := range sc.Columns {
			names[i] = c.Name
		}
		it, err := store.Scan(ctx, tf.Name)
		if err != nil {
			return nil, nil, err
		}
		defer it.Close()
		var out []Tuple
		for {
			row, _, err := it.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, nil, err
			}
			out = append(out, Tuple{Tables: map[string]map[string]value.Value{alias: rowToMap(sc, row)}})
		}
		return out, []tableCols{{alias: alias, names: names}}, nil
	case ast.TableDerived:
		tuples, cols, err := execSetExpr(ctx, store, funcs, tf.Derived.Body)
		if err != nil {
			return nil, nil, err
		}
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		out := make([]Tuple, len(tuples))
		for i, t := range tuples {
			m := make(map[string]value.Value, len(cols))
			for _, c := range cols {
				m[c.Name] = t.projected[c.Name]
			}
			out[i] = Tuple{Tables: map[string]map[string]value.Value{alias: m}}
		}
		return out, []tableCols{{alias: alias, names: names}}, nil
	case ast.TableSeries:
		n, err := Eval(ctx, &Env{Funcs: funcs}, *tf.SeriesN)
		if err != nil {
			return nil, nil, err
		}
		count, _ := asInt64(n)
		out := make([]Tuple, 0, count)
		for i := int64(0); i < count; i++ {
			out = append(out, Tuple{Tables: map[string]map[string]value.Value{alias: {"n": value.I64(i)}}})
		}
		return out, []tableCols{{alias: alias, names: []string{"n"}}}, nil
	default:
		return nil, nil, errs.Fetch("unsupported table source")
	}
}

func rowToMap(sc *schema.Schema, row schema.Row) map[string]value.Value {
	m := make(map[string]value.Value, len(sc.Columns))
	for i, c := range sc.Columns {
		m[c.Name] = row.Values[i]
	}
	return m
}

func applyJoin(ctx context.Context, store storage.Store, funcs FuncLookup, left []Tuple, leftOrder []tableCols, j ast.Join) ([]Tuple, []tableCols, error) {
	right, rightOrder, err := scanTableFactor(ctx, store, funcs, j.Table)
	if err != nil {
		return nil, nil, err
	}
	order := append(append([]tableCols(nil), leftOrder...), rightOrder...)
	var out []Tuple
	for _, l := range left {
		matched := false
		for _, r := range right {
			merged := mergeTuple(l, r)
			ok := true
			if j.On != nil {
				v, err := Eval(ctx, merged.env(funcs), *j.On)
				if err != nil {
					return nil, nil, err
				}
				b, null := asBoolOrNull(v)
				ok = !null && bool(b)
			}
			if ok {
				matched = true
				out = append(out, merged)
			}
		}
		if !matched && j.Kind == ast.JoinLeftOuter {
			nullRight := make(map[string]map[string]value.Value, len(rightOrder))
			for _, tc := range rightOrder {
				nullRight[tc.alias] = nil
			}
			out = append(out, mergeTuple(l, Tuple{Tables: nullRight}))
		}
	}
	return out, order, nil
}

func mergeTuple(a, b Tuple) Tuple {
	m := make(map[string]map[string]value.Value, len(a.Tables)+len(b.Tables))
	for k, v := range a.Tables {
		m[k] = v
	}
	for k, v := range b.Tables {
		m[k] = v
	}
	return Tuple{Tables: m}
}

func filterTuples(ctx context.Context, funcs FuncLookup, tuples []Tuple, where ast.Expr) ([]Tuple, error) {
	var out []Tuple
	for _, t := range tuples {
		v, err := Eval(ctx, t.env(funcs), where)
		if err != nil {
			return nil, err
		}
		b, null := asBoolOrNull(v)
		if !null && bool(b) {
			out = append(out, t)
		}
	}
	return out, nil
}

// projectTuple evaluates items against t, keyed by the same column names
// projectionNames produces for the identical (items, order) pair.
func projectTuple(ctx context.Context, funcs FuncLookup, t Tuple, items []ast.SelectItem, order []tableCols) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(items))
	for _, item := range items {
		if item.Wildcard {
			wildcardValues(t, item.WildTbl, order, out)
			continue
		}
		v, err := Eval(ctx, t.env(funcs), *item.Expr)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			name = exprLabel(*item.Expr)
		}
		out[name] = v
	}
	return out, nil
}

// wildcardValues fills out with every column "*"/"table.*" expands to, in
// the deterministic order recorded by order, reading value.Null{} for a
// column whose source table is an unmatched LEFT OUTER JOIN side (its
// per-row map is nil).
func wildcardValues(t Tuple, wildTbl string, order []tableCols, out map[string]value.Value) {
	for _, tc := range order {
		if wildTbl != "" && tc.alias != wildTbl {
			continue
		}
		row := t.Tables[tc.alias]
		for _, name := range tc.names {
			v, ok := row[name]
			if !ok {
				v = value.Null{}
			}
			out[name] = v
		}
	}
}

func exprLabel(e ast.Expr) string {
	if c, ok := e.(*ast.Column); ok {
		return c.Name
	}
	return "?column?"
}

// projectionNames computes the ordered output column names for items,
// expanding wildcards via order. It needs no row data: wildcard expansion
// depends only on the FROM-clause schema, so Result.Columns is correct even
// for a zero-row result.
func projectionNames(items []ast.SelectItem, order []tableCols) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, item := range items {
		if item.Wildcard {
			for _, tc := range order {
				if item.WildTbl != "" && tc.alias != item.WildTbl {
					continue
				}
				for _, name := range tc.names {
					add(name)
				}
			}
			continue
		}
		name := item.Alias
		if name == "" {
			name = exprLabel(*item.Expr)
		}
		add(name)
	}
	return names
}

func hasAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		if it.Expr == nil {
			continue
		}
		if containsAggregate(*it.Expr) {
			return true
		}
	}
	return false
}

func containsAggregate(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Aggregate:
		return true
	case *ast.BinaryExpr:
		return containsAggregate(t.Left) || containsAggregate(t.Right)
	case *ast.UnaryExpr:
		return containsAggregate(t.Operand)
	case *ast.Cast:
		return containsAggregate(t.Operand)
	default:
		return false
	}
}
