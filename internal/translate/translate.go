// Package translate wraps github.com/pingcap/tidb/pkg/parser and walks its
// parse tree into the engine-owned internal/ast. It generalizes
// internal/parser/mysql.Parser.convertCreateTable's one-case-per-node-kind
// walk from CREATE TABLE alone to the full statement surface spec.md §3.5
// names: one translateX function per engine AST node, one case arm per TiDB
// node kind, the same shape the teacher already uses.
//
// internal/ast stays independent of TiDB's own ast.Node types; this package
// is the only place that imports github.com/pingcap/tidb/pkg/parser/ast.
package translate

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	tidb "github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
)

// Translate parses a single SQL statement and converts it into the engine's
// own AST. Only the first statement in sql is honored; a host submitting a
// multi-statement batch is expected to split it and call Translate per
// statement, matching glue.Engine's one-statement-per-ExecuteStatement call
// contract.
func Translate(sql string) (ast.Statement, error) {
	trimmed := strings.TrimSpace(sql)
	if stmt, ok, err := translateNonStandard(trimmed); ok {
		return stmt, err
	}

	p := parser.New()
	nodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, errs.Parse(err, sql)
	}
	if len(nodes) == 0 {
		return nil, errs.Translate("empty statement")
	}
	return translateStmt(nodes[0])
}

func translateStmt(node tidb.StmtNode) (ast.Statement, error) {
	switch n := node.(type) {
	case *tidb.SelectStmt:
		return translateQueryFromSelect(n)
	case *tidb.SetOprStmt:
		return translateQueryFromSetOpr(n)
	case *tidb.InsertStmt:
		return translateInsert(n)
	case *tidb.UpdateStmt:
		return translateUpdate(n)
	case *tidb.DeleteStmt:
		return translateDelete(n)
	case *tidb.CreateTableStmt:
		return translateCreateTable(n)
	case *tidb.DropTableStmt:
		return translateDropTable(n)
	case *tidb.AlterTableStmt:
		return translateAlterTable(n)
	case *tidb.CreateIndexStmt:
		return translateCreateIndex(n)
	case *tidb.DropIndexStmt:
		return translateDropIndex(n)
	case *tidb.BeginStmt:
		return &ast.StartTransaction{}, nil
	case *tidb.CommitStmt:
		return &ast.Commit{}, nil
	case *tidb.RollbackStmt:
		return &ast.Rollback{}, nil
	case *tidb.ShowStmt:
		return translateShow(n)
	default:
		return nil, errs.Translate("unsupported statement kind %T", node)
	}
}
