package translate

import (
	tidb "github.com/pingcap/tidb/pkg/parser/ast"

	eng "github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
)

// translateCreateTable generalizes
// mysql.Parser.convertCreateTable/parseColumns/parseConstraints from
// smf's nine-dialect-option core.Table model down to spec.md §3.3's
// portable ColumnDef shape: name, type text, nullability, default,
// uniqueness, comment.
func translateCreateTable(n *tidb.CreateTableStmt) (*eng.CreateTable, error) {
	ct := &eng.CreateTable{Name: n.Table.Name.O, IfNotExists: n.IfNotExists}

	if n.Select != nil {
		sel, ok := n.Select.(*tidb.SelectStmt)
		if !ok {
			return nil, errs.Translate("unsupported CREATE TABLE AS SELECT body %T", n.Select)
		}
		q, err := translateQueryFromSelect(sel)
		if err != nil {
			return nil, err
		}
		ct.AsSelect = q
		return ct, nil
	}

	for _, col := range n.Cols {
		cd, err := translateColumnDef(col)
		if err != nil {
			return nil, err
		}
		ct.Columns = append(ct.Columns, cd)
		for _, opt := range col.Options {
			if opt.Tp == tidb.ColumnOptionPrimaryKey {
				ct.PrimaryKey = appendUnique(ct.PrimaryKey, cd.Name)
			}
		}
	}

	for _, c := range n.Constraints {
		switch c.Tp {
		case tidb.ConstraintPrimaryKey:
			for _, key := range c.Keys {
				ct.PrimaryKey = appendUnique(ct.PrimaryKey, key.Column.Name.O)
			}
		case tidb.ConstraintUniq, tidb.ConstraintUniqKey, tidb.ConstraintUniqIndex:
			cols := make([]string, 0, len(c.Keys))
			for _, key := range c.Keys {
				cols = append(cols, key.Column.Name.O)
			}
			ct.Uniques = append(ct.Uniques, cols)
			if len(cols) == 1 {
				markColumnUnique(ct.Columns, cols[0])
			}
		case tidb.ConstraintForeignKey:
			fk := eng.ForeignKeyDef{RefTable: c.Refer.Table.Name.O}
			for _, key := range c.Keys {
				fk.Columns = append(fk.Columns, key.Column.Name.O)
			}
			for _, spec := range c.Refer.IndexPartSpecifications {
				if spec.Column != nil {
					fk.RefColumns = append(fk.RefColumns, spec.Column.Name.O)
				}
			}
			ct.ForeignKeys = append(ct.ForeignKeys, fk)
		case tidb.ConstraintIndex, tidb.ConstraintKey:
			if len(c.Keys) != 1 {
				return nil, errs.Translate("multi-column secondary indexes are not supported; use CREATE INDEX with an expression")
			}
			ct.Indexes = append(ct.Indexes, eng.IndexDef{
				Name: c.Name,
				Expr: &eng.Column{Name: c.Keys[0].Column.Name.O},
				Asc:  true,
			})
		}
	}

	return ct, nil
}

func appendUnique(cols []string, name string) []string {
	for _, c := range cols {
		if c == name {
			return cols
		}
	}
	return append(cols, name)
}

func markColumnUnique(cols []eng.ColumnDef, name string) {
	for i := range cols {
		if cols[i].Name == name {
			cols[i].Unique = true
		}
	}
}

func translateColumnDef(col *tidb.ColumnDef) (eng.ColumnDef, error) {
	cd := eng.ColumnDef{
		Name:     col.Name.Name.O,
		DataType: col.Tp.String(),
		Nullable: true,
	}
	for _, opt := range col.Options {
		switch opt.Tp {
		case tidb.ColumnOptionNotNull, tidb.ColumnOptionPrimaryKey:
			cd.Nullable = false
		case tidb.ColumnOptionNull:
			cd.Nullable = true
		case tidb.ColumnOptionUniqKey:
			cd.Unique = true
		case tidb.ColumnOptionDefaultValue:
			e, err := translateExpr(opt.Expr)
			if err != nil {
				return eng.ColumnDef{}, err
			}
			if !isStateless(e) {
				return eng.ColumnDef{}, errs.Translate("column default for %q must be a stateless expression", cd.Name)
			}
			cd.Default = &e
		case tidb.ColumnOptionComment:
			lit, err := translateExpr(opt.Expr)
			if err == nil {
				if l, ok := lit.(*eng.Literal); ok {
					cd.Comment = l.Value.SQL()
				}
			}
		}
	}
	return cd, nil
}

// isStateless rejects column/subquery/aggregate references inside a default
// expression, per spec.md §3.3's "default expressions must be evaluable
// without a row context" invariant.
func isStateless(e eng.Expr) bool {
	switch n := e.(type) {
	case *eng.Literal:
		return true
	case *eng.Column:
		return false
	case *eng.BinaryExpr:
		return isStateless(n.Left) && isStateless(n.Right)
	case *eng.UnaryExpr:
		return isStateless(n.Operand)
	case *eng.Cast:
		return isStateless(n.Operand)
	case *eng.FunctionCall:
		for _, a := range n.Args {
			if !isStateless(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func translateDropTable(n *tidb.DropTableStmt) (eng.Statement, error) {
	if len(n.Tables) != 1 {
		return nil, errs.Translate("DROP TABLE accepts exactly one table at a time")
	}
	return &eng.DropTable{Name: n.Tables[0].Name.O, IfExists: n.IfExists}, nil
}

func translateAlterTable(n *tidb.AlterTableStmt) (eng.Statement, error) {
	if len(n.Specs) != 1 {
		return nil, errs.Translate("ALTER TABLE accepts exactly one operation at a time")
	}
	spec := n.Specs[0]
	table := n.Table.Name.O
	switch spec.Tp {
	case tidb.AlterTableAddColumns:
		if len(spec.NewColumns) != 1 {
			return nil, errs.Translate("ALTER TABLE ADD COLUMN accepts exactly one column")
		}
		cd, err := translateColumnDef(spec.NewColumns[0])
		if err != nil {
			return nil, err
		}
		if !cd.Nullable && cd.Default == nil {
			return nil, errs.Alter("ADD COLUMN %q requires nullability or a default", cd.Name)
		}
		return &eng.AlterTable{Table: table, Operation: eng.AddColumn{Column: cd}}, nil
	case tidb.AlterTableDropColumn:
		return &eng.AlterTable{Table: table, Operation: eng.DropColumn{Name: spec.OldColumnName.Name.O}}, nil
	case tidb.AlterTableRenameColumn:
		return &eng.AlterTable{Table: table, Operation: eng.RenameColumn{
			From: spec.OldColumnName.Name.O,
			To:   spec.NewColumnName.Name.O,
		}}, nil
	case tidb.AlterTableRenameTable:
		return nil, errs.Translate("RENAME TO is not yet supported")
	default:
		return nil, errs.Translate("unsupported ALTER TABLE operation %v", spec.Tp)
	}
}

func translateCreateIndex(n *tidb.CreateIndexStmt) (eng.Statement, error) {
	if len(n.IndexPartSpecifications) != 1 {
		return nil, errs.Translate("CREATE INDEX supports exactly one key part")
	}
	spec := n.IndexPartSpecifications[0]
	var expr eng.Expr
	if spec.Expr != nil {
		e, err := translateExpr(spec.Expr)
		if err != nil {
			return nil, err
		}
		expr = e
	} else if spec.Column != nil {
		expr = &eng.Column{Name: spec.Column.Name.O}
	} else {
		return nil, errs.Translate("CREATE INDEX requires a column or expression")
	}
	if _, ok := expr.(*eng.Literal); ok {
		return nil, errs.Translate("CREATE INDEX expression must reference an identifier")
	}
	return &eng.CreateIndex{Table: n.Table.Name.O, Name: n.IndexName, Expr: expr, Asc: true}, nil
}

// translateDropIndex accepts TiDB's native "DROP INDEX name ON table"
// surface rather than spec.md §6.3's "DROP INDEX t.name" dotted form: the
// parser this package wraps has no grammar production for the latter, and
// both forms carry identical information.
func translateDropIndex(n *tidb.DropIndexStmt) (eng.Statement, error) {
	return &eng.DropIndex{Table: n.Table.Name.O, Name: n.IndexName}, nil
}
