package translate

import (
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

func translateShow(n *tidb.ShowStmt) (eng.Statement, error) {
	switch n.Tp {
	case tidb.ShowColumns:
		return &eng.ShowColumns{Table: n.Table.Name.O}, nil
	case tidb.ShowIndex:
		return &eng.ShowIndexes{Table: n.Table.Name.O}, nil
	case tidb.ShowTables:
		return &eng.ShowVariable{Name: "tables"}, nil
	case tidb.ShowVariables:
		name := "version"
		if n.Pattern != nil {
			if lit, err := translateExpr(n.Pattern.Pattern); err == nil {
				if l, ok := lit.(*eng.Literal); ok {
					if s, ok := l.Value.(value.Str); ok {
						name = string(s)
					}
				}
			}
		}
		return &eng.ShowVariable{Name: name}, nil
	default:
		return nil, errs.Translate("unsupported SHOW statement kind %v", n.Tp)
	}
}
