package translate

import (
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
)

func translateInsert(n *tidb.InsertStmt) (eng.Statement, error) {
	table, err := singleTableName(n.Table)
	if err != nil {
		return nil, err
	}
	ins := &eng.Insert{Table: table}
	for _, c := range n.Columns {
		ins.Columns = append(ins.Columns, c.Name.O)
	}

	if n.Select != nil {
		switch sel := n.Select.(type) {
		case *tidb.SelectStmt:
			q, err := translateQueryFromSelect(sel)
			if err != nil {
				return nil, err
			}
			ins.Source = q
		case *tidb.SetOprStmt:
			q, err := translateQueryFromSetOpr(sel)
			if err != nil {
				return nil, err
			}
			ins.Source = q
		default:
			return nil, errs.Translate("unsupported INSERT source %T", n.Select)
		}
		return ins, nil
	}

	values := &eng.Values{}
	for _, row := range n.Lists {
		r := make([]eng.Expr, 0, len(row))
		for _, item := range row {
			e, err := translateExpr(item)
			if err != nil {
				return nil, err
			}
			r = append(r, e)
		}
		values.Rows = append(values.Rows, r)
	}
	ins.Source = values
	return ins, nil
}

func singleTableName(refs *tidb.TableRefsClause) (string, error) {
	if refs == nil || refs.TableRefs == nil {
		return "", errs.Translate("statement requires a target table")
	}
	j := refs.TableRefs
	if j.Right != nil {
		return "", errs.Translate("statement accepts exactly one target table")
	}
	ts, ok := j.Left.(*tidb.TableSource)
	if !ok {
		return "", errs.Translate("unsupported target table reference %T", j.Left)
	}
	tn, ok := ts.Source.(*tidb.TableName)
	if !ok {
		return "", errs.Translate("target must be a named table, not %T", ts.Source)
	}
	return tn.Name.O, nil
}

func translateUpdate(n *tidb.UpdateStmt) (eng.Statement, error) {
	table, err := singleTableName(n.TableRefs)
	if err != nil {
		return nil, err
	}
	u := &eng.Update{Table: table}
	for _, a := range n.List {
		if a.Column.Table.O != "" {
			return nil, errs.Translate("UPDATE assignment LHS must be an unqualified column name")
		}
		v, err := translateExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		u.Assignments = append(u.Assignments, eng.Assignment{Column: a.Column.Name.O, Value: v})
	}
	if n.Where != nil {
		e, err := translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		u.Where = &e
	}
	return u, nil
}

func translateDelete(n *tidb.DeleteStmt) (eng.Statement, error) {
	table, err := singleTableName(n.TableRefs)
	if err != nil {
		return nil, err
	}
	d := &eng.Delete{Table: table}
	if n.Where != nil {
		e, err := translateExpr(n.Where)
		if err != nil {
			return nil, err
		}
		d.Where = &e
	}
	return d, nil
}
