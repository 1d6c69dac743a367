// Package glue is the engine's entry point, composing the four pipeline
// stages spec.md §6.1 names: parse, translate, plan, execute. It also owns
// autocommit/implicit-transaction wrapping, grounded on smf's
// apply.Applier.applyWithTransaction method (internal/apply/apply.go,
// deleted from this tree once its pattern was extracted — see DESIGN.md):
// that method opens one *sql.Tx per Apply call and commits it after every
// statement in the batch succeeds, rolling back on the first failure. Here
// the unit is a single top-level Statement instead of a batch, but the
// "open around the unit of work, commit on success, rollback on any error"
// shape is identical.
package glue

import (
	"context"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/executor"
	"github.com/smflabs/sqlglue/internal/planner"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/storage"
	"github.com/smflabs/sqlglue/internal/translate"
	"github.com/smflabs/sqlglue/internal/value"
)

// Payload is the result of executing one statement: either a row set
// (Select) or an affected-row count (DML/DDL), matching spec.md §6.1's
// Payload variants.
type Payload struct {
	Columns []executor.Column
	Rows    [][]value.Value
	Affected int64
}

// Engine composes a storage back-end with the parse/translate/plan/execute
// pipeline. It is constructed with a plain functional-option-free struct
// literal, matching the teacher's Options-struct idiom (apply.Options)
// rather than a builder API.
type Engine struct {
	Store storage.Store
	inTx  bool
}

// New returns an Engine backed by store.
func New(store storage.Store) *Engine {
	return &Engine{Store: store}
}

// Execute parses, translates, plans, and executes sql. BEGIN/COMMIT/ROLLBACK
// drive e.Store's storage.Transaction directly. Any other statement except a
// query runs inside its own Begin/Commit, rolled back on error, when e.Store
// implements storage.Transaction and no explicit transaction is open;
// queries, statements inside an explicit transaction, and statements against
// a store without storage.Transaction run directly.
func (e *Engine) Execute(ctx context.Context, sql string) (*Payload, error) {
	stmt, err := translate.Translate(sql)
	if err != nil {
		return nil, err
	}
	return e.ExecuteStatement(ctx, stmt)
}

// ExecuteStatement runs an already-translated statement, planning it first
// if it names tables a planner pass can annotate.
func (e *Engine) ExecuteStatement(ctx context.Context, stmt ast.Statement) (*Payload, error) {
	switch stmt.(type) {
	case *ast.StartTransaction, *ast.Commit, *ast.Rollback:
		return e.execTxControl(ctx, stmt)
	}
	schemas, err := e.loadSchemas(ctx, stmt)
	if err != nil {
		return nil, err
	}
	planned, err := planner.Plan(schemas, stmt)
	if err != nil {
		return nil, err
	}
	return e.execAutocommit(ctx, planned)
}

func (e *Engine) execTxControl(ctx context.Context, stmt ast.Statement) (*Payload, error) {
	txStore, ok := e.Store.(storage.Transaction)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support explicit transactions")
	}
	switch stmt.(type) {
	case *ast.StartTransaction:
		if err := txStore.Begin(ctx); err != nil {
			return nil, err
		}
		e.inTx = true
		return &Payload{}, nil
	case *ast.Commit:
		err := txStore.Commit(ctx)
		e.inTx = false
		return &Payload{}, err
	case *ast.Rollback:
		err := txStore.Rollback(ctx)
		e.inTx = false
		return &Payload{}, err
	default:
		return nil, errs.Plan("unreachable transaction-control dispatch")
	}
}

// execAutocommit wraps a single statement in an implicit transaction when
// the backend supports one, matching spec.md §5's "every standalone
// statement is its own transaction" default. A statement issued inside an
// explicit BEGIN...COMMIT/ROLLBACK block is left unwrapped: it joins the
// already-open transaction instead of nesting a second Begin, which the
// reference backend rejects. A bare Query is never wrapped either: the
// reference backend locks per operation rather than for the life of a
// transaction (see storage/memory.Store.Begin), so a read-only statement
// has nothing to commit or roll back and gains nothing from the Begin/Commit
// round trip.
func (e *Engine) execAutocommit(ctx context.Context, stmt ast.Statement) (*Payload, error) {
	if _, readOnly := stmt.(*ast.Query); readOnly {
		return e.dispatch(ctx, stmt)
	}
	txStore, hasTx := e.Store.(storage.Transaction)
	if e.inTx || !hasTx {
		return e.dispatch(ctx, stmt)
	}
	if err := txStore.Begin(ctx); err != nil {
		return nil, err
	}
	payload, err := e.dispatch(ctx, stmt)
	if err != nil {
		if rerr := txStore.Rollback(ctx); rerr != nil {
			return nil, errs.StorageMsg("rollback after error failed: %v (original error: %v)", rerr, err)
		}
		return nil, err
	}
	if cerr := txStore.Commit(ctx); cerr != nil {
		return nil, cerr
	}
	return payload, err
}

func (e *Engine) dispatch(ctx context.Context, stmt ast.Statement) (*Payload, error) {
	funcs := e.funcLookup()
	switch s := stmt.(type) {
	case *ast.Query:
		res, err := executor.ExecuteQuery(ctx, e.Store, funcs, s)
		if err != nil {
			return nil, err
		}
		return &Payload{Columns: res.Columns, Rows: res.Rows}, nil
	case *ast.Insert:
		return e.execInsert(ctx, s)
	case *ast.Update:
		return e.execUpdate(ctx, s, funcs)
	case *ast.Delete:
		return e.execDelete(ctx, s, funcs)
	case *ast.CreateTable:
		return e.execCreateTable(ctx, s)
	case *ast.DropTable:
		return e.execDropTable(ctx, s)
	case *ast.AlterTable:
		return e.execAlterTable(ctx, s)
	case *ast.CreateIndex:
		return e.execCreateIndex(ctx, s)
	case *ast.DropIndex:
		return e.execDropIndex(ctx, s)
	case *ast.CreateFunction:
		return e.execCreateFunction(ctx, s)
	case *ast.DropFunction:
		return e.execDropFunction(ctx, s)
	case *ast.ShowColumns:
		return e.execShowColumns(ctx, s)
	case *ast.ShowIndexes:
		return e.execShowIndexes(ctx, s)
	case *ast.ShowVariable:
		return e.execShowVariable(ctx, s)
	default:
		return nil, errs.Evaluate("unsupported statement type %T", stmt)
	}
}

func (e *Engine) funcLookup() executor.FuncLookup {
	cf, ok := e.Store.(storage.CustomFunction)
	if !ok {
		return nil
	}
	return func(ctx context.Context, name string) ([]string, ast.Expr, bool, error) {
		def, ok, err := cf.LookupFunction(ctx, name)
		if err != nil || !ok {
			return nil, nil, ok, err
		}
		body, _ := def.Body.(ast.Expr)
		return def.Params, body, true, nil
	}
}

// loadSchemas collects the schema of every named table stmt references, for
// the planner. Only SELECT/INSERT/UPDATE/DELETE reference tables that need
// resolving; DDL statements return an empty set.
func (e *Engine) loadSchemas(ctx context.Context, stmt ast.Statement) (planner.Schemas, error) {
	names := tableNames(stmt)
	out := make(planner.Schemas, len(names))
	for _, n := range names {
		sc, err := e.Store.Schema(ctx, n)
		if err != nil {
			return nil, err
		}
		out[n] = sc
	}
	return out, nil
}

func tableNames(stmt ast.Statement) []string {
	switch s := stmt.(type) {
	case *ast.Query:
		return setExprTables(s.Body)
	case *ast.Insert:
		return []string{s.Table}
	case *ast.Update:
		return []string{s.Table}
	case *ast.Delete:
		return []string{s.Table}
	default:
		return nil
	}
}

func setExprTables(se ast.SetExpr) []string {
	switch e := se.(type) {
	case *ast.Select:
		var out []string
		if e.From != nil && e.From.Kind == ast.TableNamed {
			out = append(out, e.From.Name)
		}
		for _, j := range e.Joins {
			if j.Table.Kind == ast.TableNamed {
				out = append(out, j.Table.Name)
			}
		}
		return out
	case *ast.SetOp:
		return append(setExprTables(e.Left), setExprTables(e.Right)...)
	default:
		return nil
	}
}

func (e *Engine) schemaFor(ctx context.Context, table string) (*schema.Schema, error) {
	return e.Store.Schema(ctx, table)
}
