// Package schema implements the engine's Schema/ColumnDef/Row model
// (spec.md §3.3-§3.4), trimmed from smf's nine-dialect-specific
// internal/core.Table/Column option sprawl down to the portable subset a
// query engine actually needs at runtime: name, declared type, nullability,
// a stateless default expression, uniqueness/primary-key membership, and
// named (column-expression) index pairs. smf's Validate/synthesizeConstraint
// pass (internal/core/validate_table.go, validate_constraint.go) is the
// direct model for Schema.Validate below.
package schema

import (
	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// ColumnDef describes one column of a Schema.
type ColumnDef struct {
	Name     string
	DataType value.Kind
	Nullable bool
	Default  *ast.Expr
	Unique   bool
	Comment  string
}

// IndexDef names a secondary index over an expression, per spec.md §3.3.
type IndexDef struct {
	Name string
	Expr ast.Expr
	Asc  bool
}

// ForeignKey declares a referential constraint, enforced at the storage
// layer rather than the schema layer (spec.md places FK enforcement outside
// the engine's transactional guarantees).
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Schema is the full definition of one table: its columns, optional
// composite primary key, secondary indexes, and foreign keys.
type Schema struct {
	TableName   string
	Columns     []ColumnDef
	PrimaryKey  []string // empty means the table has no declared primary key
	Indexes     []IndexDef
	ForeignKeys []ForeignKey
}

// ColumnByName returns the column named name, or ok=false if no such column
// exists, mirroring smf's core.Table.FindColumn.
func (s *Schema) ColumnByName(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// IndexByName returns the index named name, or ok=false, mirroring
// core.Table.FindIndex.
func (s *Schema) IndexByName(name string) (IndexDef, bool) {
	for _, ix := range s.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexDef{}, false
}

// ColumnPosition returns the zero-based ordinal of the named column, used by
// Row to map names to slice offsets.
func (s *Schema) ColumnPosition(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Validate checks the structural invariants spec.md §3.3 requires: unique
// column names, a primary key (if declared) naming only existing columns, and
// no duplicate index names. Index expressions are not inspected, so an index
// over a column this table lacks is not rejected here. Grounded on
// core.Table.Validate's naming/uniqueness checks
// generalized from DDL-authoring-time validation to schema-registration-time
// validation.
func (s *Schema) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c.Name] {
			return errs.Plan("duplicate column %q in table %q", c.Name, s.TableName)
		}
		seen[c.Name] = true
	}
	for _, pk := range s.PrimaryKey {
		if !seen[pk] {
			return errs.Plan("primary key column %q not found in table %q", pk, s.TableName)
		}
	}
	ixSeen := make(map[string]bool, len(s.Indexes))
	for _, ix := range s.Indexes {
		if ixSeen[ix.Name] {
			return errs.Plan("duplicate index name %q on table %q", ix.Name, s.TableName)
		}
		ixSeen[ix.Name] = true
	}
	return nil
}

// Clone returns a deep-enough copy of s safe for planner rewrites that add
// columns/indexes without mutating the registered schema.
func (s *Schema) Clone() *Schema {
	cp := *s
	cp.Columns = append([]ColumnDef(nil), s.Columns...)
	cp.PrimaryKey = append([]string(nil), s.PrimaryKey...)
	cp.Indexes = append([]IndexDef(nil), s.Indexes...)
	cp.ForeignKeys = append([]ForeignKey(nil), s.ForeignKeys...)
	return &cp
}

// FromCreateTable builds a Schema from a translated CreateTable statement,
// resolving each column's textual data type name to a value.Kind.
func FromCreateTable(ct *ast.CreateTable) (*Schema, error) {
	s := &Schema{TableName: ct.Name, PrimaryKey: append([]string(nil), ct.PrimaryKey...)}
	for _, cd := range ct.Columns {
		kind, err := ParseDataType(cd.DataType)
		if err != nil {
			return nil, err
		}
		s.Columns = append(s.Columns, ColumnDef{
			Name:     cd.Name,
			DataType: kind,
			Nullable: cd.Nullable,
			Default:  cd.Default,
			Unique:   cd.Unique,
			Comment:  cd.Comment,
		})
	}
	for _, fk := range ct.ForeignKeys {
		s.ForeignKeys = append(s.ForeignKeys, ForeignKey{
			Columns:    fk.Columns,
			RefTable:   fk.RefTable,
			RefColumns: fk.RefColumns,
		})
	}
	for _, ix := range ct.Indexes {
		s.Indexes = append(s.Indexes, IndexDef{Name: ix.Name, Expr: ix.Expr, Asc: ix.Asc})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
