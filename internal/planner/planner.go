// Package planner rewrites a translated ast.Statement against the known
// table schemas before execution: checking that the tables it names exist
// and attaching IndexItem annotations to named table factors. The executor
// does not read these annotations; it scans every named table in full. It
// is a pure
// function with no I/O, grounded on smf's internal/diff package's own pure
// "two inputs in, one value out" transform style (diff.Diff(old, new
// *core.Database) (*SchemaDiff, error)) — here the "two inputs" become "a
// schema snapshot and a statement" and the "diff" becomes "a rewritten
// statement".
package planner

import (
	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/schema"
)

// Schemas is the set of registered table schemas visible to a plan pass,
// keyed by table name.
type Schemas map[string]*schema.Schema

// Plan rewrites stmt against schemas, attaching IndexItem hints to the
// TableFactors of a query (see planTableFactor) and rejecting an unknown
// table named by a query, INSERT, UPDATE, or DELETE. DDL statements pass
// through unchanged since they have no TableFactor to annotate.
func Plan(schemas Schemas, stmt ast.Statement) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *ast.Query:
		body, err := planSetExpr(schemas, s.Body)
		if err != nil {
			return nil, err
		}
		out := *s
		out.Body = body
		return &out, nil
	case *ast.Update:
		if _, ok := schemas[s.Table]; !ok {
			return nil, errs.Plan("unknown table %q", s.Table)
		}
		return s, nil
	case *ast.Delete:
		if _, ok := schemas[s.Table]; !ok {
			return nil, errs.Plan("unknown table %q", s.Table)
		}
		return s, nil
	case *ast.Insert:
		if _, ok := schemas[s.Table]; !ok {
			return nil, errs.Plan("unknown table %q", s.Table)
		}
		return s, nil
	default:
		return stmt, nil
	}
}

func planSetExpr(schemas Schemas, se ast.SetExpr) (ast.SetExpr, error) {
	switch e := se.(type) {
	case *ast.Select:
		return planSelect(schemas, e)
	case *ast.Values:
		return e, nil
	case *ast.SetOp:
		left, err := planSetExpr(schemas, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := planSetExpr(schemas, e.Right)
		if err != nil {
			return nil, err
		}
		out := *e
		out.Left, out.Right = left, right
		return &out, nil
	default:
		return se, nil
	}
}

func planSelect(schemas Schemas, sel *ast.Select) (*ast.Select, error) {
	out := *sel
	if sel.From != nil {
		tf, err := planTableFactor(schemas, *sel.From)
		if err != nil {
			return nil, err
		}
		out.From = &tf
	}
	joins := make([]ast.Join, len(sel.Joins))
	for i, j := range sel.Joins {
		tf, err := planTableFactor(schemas, j.Table)
		if err != nil {
			return nil, err
		}
		joins[i] = j
		joins[i].Table = tf
	}
	out.Joins = joins
	return &out, nil
}

// planTableFactor attaches an IndexItem to a named tf: its PrimaryKey is the
// table's primary-key column whenever the table has a single-column primary
// key; otherwise IndexItem stays nil, meaning "full scan". The WHERE clause
// is not consulted, no conjunct is removed from it, and secondary indexes
// are never selected. Derived tables have their bodies planned recursively.
func planTableFactor(schemas Schemas, tf ast.TableFactor) (ast.TableFactor, error) {
	if tf.Kind != ast.TableNamed {
		if tf.Kind == ast.TableDerived && tf.Derived != nil {
			body, err := planSetExpr(schemas, tf.Derived.Body)
			if err != nil {
				return tf, err
			}
			derived := *tf.Derived
			derived.Body = body
			tf.Derived = &derived
		}
		return tf, nil
	}
	sc, ok := schemas[tf.Name]
	if !ok {
		return tf, errs.Plan("unknown table %q", tf.Name)
	}
	if len(sc.PrimaryKey) == 1 {
		col := &ast.Column{Table: tf.Name, Name: sc.PrimaryKey[0]}
		var colExpr ast.Expr = col
		tf.IndexItem = &ast.IndexItem{PrimaryKey: &colExpr}
	}
	return tf, nil
}
