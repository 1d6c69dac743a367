package glue

import (
	"context"
	"io"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/executor"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/storage"
	"github.com/smflabs/sqlglue/internal/value"
)

func (e *Engine) execCreateTable(ctx context.Context, s *ast.CreateTable) (*Payload, error) {
	ddl, ok := e.Store.(storage.AlterAddTable)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support CREATE TABLE")
	}
	if s.IfNotExists {
		if _, err := e.Store.Schema(ctx, s.Name); err == nil {
			return &Payload{}, nil
		}
	}
	if s.AsSelect != nil {
		return e.execCreateTableAsSelect(ctx, ddl, s)
	}
	sc, err := schema.FromCreateTable(s)
	if err != nil {
		return nil, err
	}
	return &Payload{}, ddl.CreateTable(ctx, sc)
}

// execCreateTableAsSelect implements CTAS (spec.md §4.4): run the source
// query, infer each column's type from the first non-null value seen
// (falling back to TEXT for an all-null column), create the schema, then
// insert the result rows.
func (e *Engine) execCreateTableAsSelect(ctx context.Context, ddl storage.AlterAddTable, s *ast.CreateTable) (*Payload, error) {
	res, err := executor.ExecuteQuery(ctx, e.Store, e.funcLookup(), s.AsSelect)
	if err != nil {
		return nil, err
	}
	sc := &schema.Schema{TableName: s.Name}
	for _, c := range res.Columns {
		kind := value.KindStr
		for _, row := range res.Rows {
			idx := -1
			for i, rc := range res.Columns {
				if rc.Name == c.Name {
					idx = i
					break
				}
			}
			if idx >= 0 && !value.IsNull(row[idx]) {
				kind = row[idx].Kind()
				break
			}
		}
		sc.Columns = append(sc.Columns, schema.ColumnDef{Name: c.Name, DataType: kind, Nullable: true})
	}
	if err := ddl.CreateTable(ctx, sc); err != nil {
		return nil, err
	}
	m, err := e.mut()
	if err != nil {
		return nil, err
	}
	var count int64
	for _, r := range res.Rows {
		row := schema.NewRow(len(sc.Columns))
		copy(row.Values, r)
		if err := m.Insert(ctx, s.Name, row); err != nil {
			return nil, err
		}
		count++
	}
	return &Payload{Affected: count}, nil
}

func (e *Engine) execDropTable(ctx context.Context, s *ast.DropTable) (*Payload, error) {
	ddl, ok := e.Store.(storage.AlterAddTable)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support DROP TABLE")
	}
	if s.IfExists {
		if _, err := e.Store.Schema(ctx, s.Name); err != nil {
			return &Payload{}, nil
		}
	}
	return &Payload{}, ddl.DropTable(ctx, s.Name)
}

func (e *Engine) execAlterTable(ctx context.Context, s *ast.AlterTable) (*Payload, error) {
	alter, ok := e.Store.(storage.AlterTable)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support ALTER TABLE")
	}
	switch op := s.Operation.(type) {
	case ast.AddColumn:
		col, err := toSchemaColumn(op.Column)
		if err != nil {
			return nil, err
		}
		if !col.Nullable && col.Default == nil {
			return nil, errs.Alter("ADD COLUMN %q requires either NULL or a DEFAULT", col.Name)
		}
		if err := alter.AddColumn(ctx, s.Table, col); err != nil {
			return nil, err
		}
		if col.Default != nil {
			if err := e.backfillDefault(ctx, s.Table, col); err != nil {
				return nil, err
			}
		}
		return &Payload{}, nil
	case ast.DropColumn:
		return &Payload{}, alter.DropColumn(ctx, s.Table, op.Name)
	case ast.RenameColumn:
		return &Payload{}, alter.RenameColumn(ctx, s.Table, op.From, op.To)
	default:
		return nil, errs.Alter("unsupported ALTER TABLE operation %T", s.Operation)
	}
}

// backfillDefault fills col's freshly-added value (storage.AddColumn
// always appends NULL for existing rows) with its declared default,
// matching spec.md §4.4's "existing rows acquire the default value" rule.
// The default is evaluated once, with no row context, since column
// defaults must be stateless expressions (spec.md §3.3).
func (e *Engine) backfillDefault(ctx context.Context, table string, col schema.ColumnDef) error {
	m, err := e.mut()
	if err != nil {
		return err
	}
	v, err := executor.Eval(ctx, &executor.Env{}, *col.Default)
	if err != nil {
		return err
	}
	if value.IsNull(v) {
		return nil
	}
	sc, err := e.Store.Schema(ctx, table)
	if err != nil {
		return err
	}
	idx, ok := sc.ColumnPosition(col.Name)
	if !ok {
		return errs.Alter("column %q not found on %q after ADD COLUMN", col.Name, table)
	}
	it, err := m.Scan(ctx, table)
	if err != nil {
		return err
	}
	defer it.Close()
	type pending struct {
		key value.Key
		row schema.Row
	}
	var rows []pending
	for {
		row, key, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		updated := row.Clone()
		updated.Values[idx] = v
		rows = append(rows, pending{key: key, row: updated})
	}
	for _, p := range rows {
		if err := m.Update(ctx, table, p.key, p.row); err != nil {
			return err
		}
	}
	return nil
}

func toSchemaColumn(cd ast.ColumnDef) (schema.ColumnDef, error) {
	kind, err := schema.ParseDataType(cd.DataType)
	if err != nil {
		return schema.ColumnDef{}, err
	}
	return schema.ColumnDef{
		Name:     cd.Name,
		DataType: kind,
		Nullable: cd.Nullable,
		Default:  cd.Default,
		Unique:   cd.Unique,
		Comment:  cd.Comment,
	}, nil
}

func (e *Engine) execCreateIndex(ctx context.Context, s *ast.CreateIndex) (*Payload, error) {
	ix, ok := e.Store.(storage.IndexMut)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support secondary indexes")
	}
	return &Payload{}, ix.CreateIndex(ctx, s.Table, schema.IndexDef{Name: s.Name, Expr: s.Expr, Asc: s.Asc})
}

func (e *Engine) execDropIndex(ctx context.Context, s *ast.DropIndex) (*Payload, error) {
	ix, ok := e.Store.(storage.IndexMut)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support secondary indexes")
	}
	return &Payload{}, ix.DropIndex(ctx, s.Table, s.Name)
}

func (e *Engine) execCreateFunction(ctx context.Context, s *ast.CreateFunction) (*Payload, error) {
	cf, ok := e.Store.(storage.CustomFunction)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support custom functions")
	}
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Name
	}
	return &Payload{}, cf.RegisterFunction(ctx, s.Name, storage.CustomFunctionDef{Params: params, Body: s.Body})
}

func (e *Engine) execDropFunction(ctx context.Context, s *ast.DropFunction) (*Payload, error) {
	cf, ok := e.Store.(storage.CustomFunction)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support custom functions")
	}
	return &Payload{}, cf.DropFunction(ctx, s.Name)
}

func (e *Engine) execShowColumns(ctx context.Context, s *ast.ShowColumns) (*Payload, error) {
	md, ok := e.Store.(storage.Metadata)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support introspection")
	}
	cols, err := md.Columns(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, len(cols))
	for i, c := range cols {
		rows[i] = []value.Value{value.Str(c.Name), value.Str(c.DataType.String()), value.Bool(c.Nullable)}
	}
	return &Payload{
		Columns: []executor.Column{{Name: "name"}, {Name: "type"}, {Name: "nullable"}},
		Rows:    rows,
	}, nil
}

func (e *Engine) execShowIndexes(ctx context.Context, s *ast.ShowIndexes) (*Payload, error) {
	md, ok := e.Store.(storage.Metadata)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support introspection")
	}
	ixs, err := md.Indexes(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, len(ixs))
	for i, ix := range ixs {
		rows[i] = []value.Value{value.Str(ix.Name), value.Bool(ix.Asc)}
	}
	return &Payload{
		Columns: []executor.Column{{Name: "name"}, {Name: "ascending"}},
		Rows:    rows,
	}, nil
}

func (e *Engine) execShowVariable(ctx context.Context, s *ast.ShowVariable) (*Payload, error) {
	switch s.Name {
	case "version":
		return &Payload{
			Columns: []executor.Column{{Name: "version"}},
			Rows:    [][]value.Value{{value.Str("sqlglue 0.1")}},
		}, nil
	case "functions":
		cf, ok := e.Store.(storage.CustomFunction)
		if !ok {
			return nil, errs.StorageMsg("storage backend does not support custom functions")
		}
		names, err := cf.ListFunctions(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([][]value.Value, len(names))
		for i, n := range names {
			rows[i] = []value.Value{value.Str(n)}
		}
		return &Payload{Columns: []executor.Column{{Name: "name"}}, Rows: rows}, nil
	default:
		return nil, errs.Evaluate("unknown variable %q", s.Name)
	}
}
