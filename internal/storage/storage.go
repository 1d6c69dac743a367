// Package storage defines the capability contract a storage back-end
// implements (spec.md §4.5): a small set of orthogonal interfaces that a
// back-end may satisfy any subset of, probed via type assertion the same
// way smf probes an optional dialect.BreakingChangeDetector capability off
// its core dialect.Dialect interface
// (internal/dialect/dialect.go:BreakingChangeDetector, checked with
// `if bcd, ok := d.(BreakingChangeDetector); ok`).
package storage

import (
	"context"

	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/value"
)

// RowIter is a pull-based cursor over a table's rows, terminated by io.EOF.
type RowIter interface {
	// Next advances the iterator and returns the next row and its derived
	// key. It returns io.EOF (wrapped or bare) once exhausted.
	Next(ctx context.Context) (schema.Row, value.Key, error)
	Close() error
}

// Store is the minimal read-only capability every back-end must implement:
// enumerate a table's rows and look up its schema.
type Store interface {
	// Schema returns the registered schema for table, or an errs.Fetch error
	// if no such table exists.
	Schema(ctx context.Context, table string) (*schema.Schema, error)
	// Scan returns a full-table row iterator.
	Scan(ctx context.Context, table string) (RowIter, error)
}

// StoreMut is the mutable data-manipulation capability: insert, update, and
// delete rows by key.
type StoreMut interface {
	Store
	Insert(ctx context.Context, table string, row schema.Row) error
	Update(ctx context.Context, table string, key value.Key, row schema.Row) error
	Delete(ctx context.Context, table string, key value.Key) error
}

// AlterAddTable is the DDL capability for creating and dropping whole
// tables.
type AlterAddTable interface {
	CreateTable(ctx context.Context, s *schema.Schema) error
	DropTable(ctx context.Context, table string) error
}

// AlterTable is the DDL capability for altering an existing table's columns
// (spec.md §3.6's AlterTable(operation) forms): add, drop, or rename one.
type AlterTable interface {
	AddColumn(ctx context.Context, table string, col schema.ColumnDef) error
	DropColumn(ctx context.Context, table string, col string) error
	RenameColumn(ctx context.Context, table, from, to string) error
}

// Index is the read-side secondary-index capability: scan a table's rows in
// the order of an index's comparison values.
type Index interface {
	IndexScan(ctx context.Context, table, indexName string) (RowIter, error)
}

// IndexMut is the write-side secondary-index capability.
type IndexMut interface {
	Index
	CreateIndex(ctx context.Context, table string, ix schema.IndexDef) error
	DropIndex(ctx context.Context, table, indexName string) error
}

// Transaction is the optional transactional capability (spec.md §5):
// Begin/Commit/Rollback bracket an explicit transaction; absent this
// capability, every statement autocommits.
type Transaction interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Metadata lists tables and describes a table's columns and indexes;
// internal/glue reads it for SHOW COLUMNS and SHOW INDEXES. The executor
// rejects DICTIONARY table sources, so no __TABLES__/__COLUMNS__/__INDEXES__
// view reads it. Modeled on smf's per-dialect introspect.Introspecter
// methods generalized from a live external database to the live in-process
// store.
type Metadata interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]schema.ColumnDef, error)
	Indexes(ctx context.Context, table string) ([]schema.IndexDef, error)
}

// CustomFunction is the optional user-defined-function registry capability
// backing CREATE FUNCTION / DROP FUNCTION (§6.6).
type CustomFunction interface {
	RegisterFunction(ctx context.Context, name string, def CustomFunctionDef) error
	LookupFunction(ctx context.Context, name string) (CustomFunctionDef, bool, error)
	DropFunction(ctx context.Context, name string) error
	ListFunctions(ctx context.Context) ([]string, error)
}

// CustomFunctionDef is a registered function's parameter list and body
// expression (typed as interface{} here to avoid storage depending on
// internal/ast's Expr type; internal/executor does the concrete unwrap).
type CustomFunctionDef struct {
	Params []string
	Body   any
}
