// Package seed loads fixture data described in TOML documents into a
// storage back-end, generalizing smf's internal/parser/toml package (which
// decodes a TOML schema document into a core.Database) from that tool's
// dialect-aware DDL description down to this engine's narrower need: a flat
// table/column/row fixture format for tests and the demo CLI, decoded with
// the same github.com/BurntSushi/toml decoder smf uses.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/storage"
	"github.com/smflabs/sqlglue/internal/value"
)

// document is the top-level shape of a seed file: one or more [[tables]],
// each naming its columns and literal row data. Mirrors smf's schemaFile /
// tomlTable split (internal/parser/toml/parser.go) but flattened: no
// dialect, no constraint/index sub-tables, since those already round-trip
// through SQL DDL in this engine and don't need a second description format.
type document struct {
	Tables []table `toml:"tables"`
}

type table struct {
	Name    string   `toml:"name"`
	Columns []column `toml:"columns"`
	// Rows holds one map per row, keyed by column name. TOML's native map
	// type decodes happily into interface{}, the same "decode loosely,
	// convert explicitly" idiom smf's converter.convertTableColumns applies
	// to its tomlColumn.Type string before resolving a core.DataType.
	Rows []map[string]any `toml:"rows"`
}

type column struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	Nullable   bool   `toml:"nullable"`
	PrimaryKey bool   `toml:"primary_key"`
}

// Load decodes a seed document from r and creates+populates every table it
// names against store, which must implement storage.AlterAddTable and
// storage.StoreMut.
func Load(ctx context.Context, ddl storage.AlterAddTable, mut storage.StoreMut, r io.Reader) error {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return errs.Parse(err, "seed document")
	}
	for _, t := range doc.Tables {
		sc, err := convertTable(&t)
		if err != nil {
			return fmt.Errorf("seed table %q: %w", t.Name, err)
		}
		if err := ddl.CreateTable(ctx, sc); err != nil {
			return err
		}
		for i, rowData := range t.Rows {
			row, err := convertRow(sc, rowData)
			if err != nil {
				return fmt.Errorf("seed table %q row %d: %w", t.Name, i, err)
			}
			if err := mut.Insert(ctx, t.Name, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func convertTable(t *table) (*schema.Schema, error) {
	sc := &schema.Schema{TableName: t.Name}
	for _, c := range t.Columns {
		kind, err := schema.ParseDataType(c.Type)
		if err != nil {
			return nil, err
		}
		sc.Columns = append(sc.Columns, schema.ColumnDef{
			Name:     c.Name,
			DataType: kind,
			Nullable: c.Nullable,
		})
		if c.PrimaryKey {
			sc.PrimaryKey = append(sc.PrimaryKey, c.Name)
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func convertRow(sc *schema.Schema, data map[string]any) (schema.Row, error) {
	row := schema.NewRow(len(sc.Columns))
	for name, raw := range data {
		idx, ok := sc.ColumnPosition(name)
		if !ok {
			return schema.Row{}, errs.Fetch("seed row references unknown column %q", name)
		}
		v, err := convertLiteral(sc.Columns[idx].DataType, raw)
		if err != nil {
			return schema.Row{}, err
		}
		row.Values[idx] = v
	}
	return row, nil
}

// convertLiteral converts a TOML-decoded Go value (the limited set
// encoding/toml itself produces: bool, int64, float64, string, time.Time)
// to the value.Value of the target column's declared Kind, the same
// "decode to Go native, then normalize to the portable type" step smf's
// converter does for its own TOML schema fields.
func convertLiteral(kind value.Kind, raw any) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	switch kind {
	case value.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, errs.Value("expected bool, got %T", raw)
		}
		return value.Bool(b), nil
	case value.KindI8, value.KindI16, value.KindI32, value.KindI64:
		n, ok := raw.(int64)
		if !ok {
			return nil, errs.Value("expected integer, got %T", raw)
		}
		return intOfKind(kind, n), nil
	case value.KindU8, value.KindU16, value.KindU32, value.KindU64:
		n, ok := raw.(int64)
		if !ok || n < 0 {
			return nil, errs.Value("expected non-negative integer, got %v", raw)
		}
		return uintOfKind(kind, uint64(n)), nil
	case value.KindF32:
		f, ok := raw.(float64)
		if !ok {
			return nil, errs.Value("expected float, got %T", raw)
		}
		return value.F32(f), nil
	case value.KindF64:
		f, ok := raw.(float64)
		if !ok {
			return nil, errs.Value("expected float, got %T", raw)
		}
		return value.F64(f), nil
	case value.KindStr:
		s, ok := raw.(string)
		if !ok {
			return nil, errs.Value("expected string, got %T", raw)
		}
		return value.Str(s), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, errs.Value("column type %v requires a string literal in seed data", kind)
		}
		return value.Cast(value.Str(s), kind)
	}
}

func intOfKind(kind value.Kind, n int64) value.Value {
	switch kind {
	case value.KindI8:
		return value.I8(n)
	case value.KindI16:
		return value.I16(n)
	case value.KindI32:
		return value.I32(n)
	default:
		return value.I64(n)
	}
}

func uintOfKind(kind value.Kind, n uint64) value.Value {
	switch kind {
	case value.KindU8:
		return value.U8(n)
	case value.KindU16:
		return value.U16(n)
	case value.KindU32:
		return value.U32(n)
	default:
		return value.U64(n)
	}
}
