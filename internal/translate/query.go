package translate

import (
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
)

func translateQueryFromSelect(n *tidb.SelectStmt) (*eng.Query, error) {
	body, err := translateSelect(n)
	if err != nil {
		return nil, err
	}
	q := &eng.Query{Body: body}
	if err := fillOrderLimit(&q.OrderBy, &q.Limit, &q.Offset, n.OrderBy, n.Limit); err != nil {
		return nil, err
	}
	return q, nil
}

func translateQueryFromSetOpr(n *tidb.SetOprStmt) (*eng.Query, error) {
	if n.SelectList == nil || len(n.SelectList.Selects) == 0 {
		return nil, errs.Translate("empty set operation")
	}
	selects := n.SelectList.Selects

	first, ok := selects[0].(*tidb.SelectStmt)
	if !ok {
		return nil, errs.Translate("unsupported set-operation member %T", selects[0])
	}
	left, err := translateSelect(first)
	if err != nil {
		return nil, err
	}
	var body eng.SetExpr = left
	for _, member := range selects[1:] {
		sel, ok := member.(*tidb.SelectStmt)
		if !ok {
			return nil, errs.Translate("unsupported set-operation member %T", member)
		}
		right, err := translateSelect(sel)
		if err != nil {
			return nil, err
		}
		kind, all, err := setOpKind(sel.AfterSetOperator)
		if err != nil {
			return nil, err
		}
		body = &eng.SetOp{Kind: kind, All: all, Left: body, Right: right}
	}
	q := &eng.Query{Body: body}
	if err := fillOrderLimit(&q.OrderBy, &q.Limit, &q.Offset, n.OrderBy, n.Limit); err != nil {
		return nil, err
	}
	return q, nil
}

func setOpKind(op *tidb.SetOprType) (eng.SetOpKind, bool, error) {
	if op == nil {
		return 0, false, errs.Translate("set-operation member missing operator")
	}
	switch *op {
	case tidb.Union:
		return eng.SetOpUnion, false, nil
	case tidb.UnionAll:
		return eng.SetOpUnion, true, nil
	case tidb.Except:
		return eng.SetOpExcept, false, nil
	case tidb.Intersect:
		return eng.SetOpIntersect, false, nil
	default:
		return 0, false, errs.Translate("unsupported set operator %v", *op)
	}
}

func translateSelect(n *tidb.SelectStmt) (*eng.Select, error) {
	sel := &eng.Select{}
	if n.SelectStmtOpts != nil {
		sel.Distinct = n.SelectStmtOpts.Distinct
	}

	projection, err := translateFieldList(n.Fields)
	if err != nil {
		return nil, err
	}
	sel.Projection = projection

	if n.From != nil && n.From.TableRefs != nil {
		from, joins, err := translateTableRefs(n.From.TableRefs)
		if err != nil {
			return nil, err
		}
		sel.From = from
		sel.Joins = joins
	}

	if n.Where != nil {
		where, err := translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		sel.Where = &where
	}

	if n.GroupBy != nil {
		for _, item := range n.GroupBy.Items {
			e, err := translateExpr(item.Expr)
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
		}
	}

	if n.Having != nil && n.Having.Expr != nil {
		having, err := translateExpr(n.Having.Expr)
		if err != nil {
			return nil, err
		}
		sel.Having = &having
	}

	return sel, nil
}

func translateFieldList(fl *tidb.FieldList) ([]eng.SelectItem, error) {
	if fl == nil {
		return nil, nil
	}
	items := make([]eng.SelectItem, 0, len(fl.Fields))
	for _, f := range fl.Fields {
		if f.WildCard != nil {
			items = append(items, eng.SelectItem{
				Wildcard: true,
				WildTbl:  f.WildCard.Table.O,
			})
			continue
		}
		e, err := translateExpr(f.Expr)
		if err != nil {
			return nil, err
		}
		items = append(items, eng.SelectItem{Expr: &e, Alias: f.AsName.O})
	}
	return items, nil
}

// translateTableRefs flattens TiDB's left-leaning *ast.Join tree into a
// single driving TableFactor plus a flat Joins list. spec.md §4.1 permits at
// most one base table factor in FROM; a plain comma join (TiDB's
// ast.CrossJoin with no ON) between two bare tables is TooManyTables.
func translateTableRefs(j *tidb.Join) (*eng.TableFactor, []eng.Join, error) {
	var joins []eng.Join
	cur := j
	for cur.Right != nil {
		rightFactor, err := translateResultSetNode(cur.Right)
		if err != nil {
			return nil, nil, err
		}
		kind, err := joinKind(cur)
		if err != nil {
			return nil, nil, err
		}
		var on *eng.Expr
		if cur.On != nil {
			e, err := translateExpr(cur.On.Expr)
			if err != nil {
				return nil, nil, err
			}
			on = &e
		} else if kind == eng.JoinInner && len(cur.Using) == 0 {
			return nil, nil, errs.Translate("too many tables in FROM clause")
		}
		if len(cur.Using) > 0 {
			return nil, nil, errs.Translate("USING join constraint is not supported")
		}
		joins = append([]eng.Join{{Kind: kind, Table: *rightFactor, On: on}}, joins...)

		left, ok := cur.Left.(*tidb.Join)
		if !ok {
			leftFactor, err := translateResultSetNode(cur.Left)
			if err != nil {
				return nil, nil, err
			}
			return leftFactor, joins, nil
		}
		cur = left
	}
	leftFactor, err := translateResultSetNode(cur.Left)
	if err != nil {
		return nil, nil, err
	}
	return leftFactor, joins, nil
}

func joinKind(j *tidb.Join) (eng.JoinKind, error) {
	switch j.Tp {
	case tidb.CrossJoin:
		return eng.JoinInner, nil
	case tidb.LeftJoin:
		return eng.JoinLeftOuter, nil
	case tidb.RightJoin:
		return 0, errs.Translate("RIGHT OUTER JOIN is not supported; rewrite as LEFT OUTER JOIN")
	default:
		return 0, errs.Translate("unsupported join type %v", j.Tp)
	}
}

func translateResultSetNode(n tidb.ResultSetNode) (*eng.TableFactor, error) {
	ts, ok := n.(*tidb.TableSource)
	if !ok {
		return nil, errs.Translate("unsupported table-reference node %T", n)
	}
	alias := ts.AsName.O
	switch src := ts.Source.(type) {
	case *tidb.TableName:
		// SERIES(n)/DICTIONARY(name) table factors (spec.md §3.6) have no
		// TiDB grammar production — its parser has no generic table-valued
		// function syntax — so they are only reachable by constructing an
		// ast.TableFactor literal directly, not by parsing SQL text through
		// this package.
		return &eng.TableFactor{Kind: eng.TableNamed, Name: src.Name.O, Alias: alias}, nil
	case *tidb.SelectStmt:
		if alias == "" {
			return nil, errs.Translate("derived table requires an alias")
		}
		derived, err := translateQueryFromSelect(src)
		if err != nil {
			return nil, err
		}
		return &eng.TableFactor{Kind: eng.TableDerived, Derived: derived, Alias: alias}, nil
	case *tidb.SetOprStmt:
		if alias == "" {
			return nil, errs.Translate("derived table requires an alias")
		}
		derived, err := translateQueryFromSetOpr(src)
		if err != nil {
			return nil, err
		}
		return &eng.TableFactor{Kind: eng.TableDerived, Derived: derived, Alias: alias}, nil
	default:
		return nil, errs.Translate("unsupported table source %T", ts.Source)
	}
}

func fillOrderLimit(orderBy *[]eng.OrderByExpr, limit, offset **eng.Expr, ob *tidb.OrderByClause, lim *tidb.Limit) error {
	if ob != nil {
		for _, item := range ob.Items {
			if item.NullOrder {
				return errs.Translate("ORDER BY NULLS FIRST/LAST is not supported")
			}
			e, err := translateExpr(item.Expr)
			if err != nil {
				return err
			}
			*orderBy = append(*orderBy, eng.OrderByExpr{Expr: e, Asc: !item.Desc})
		}
	}
	if lim != nil {
		if lim.Count != nil {
			e, err := translateExpr(lim.Count)
			if err != nil {
				return err
			}
			*limit = &e
		}
		if lim.Offset != nil {
			e, err := translateExpr(lim.Offset)
			if err != nil {
				return err
			}
			*offset = &e
		}
	}
	return nil
}
