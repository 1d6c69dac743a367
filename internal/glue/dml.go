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

func (e *Engine) mut() (storage.StoreMut, error) {
	m, ok := e.Store.(storage.StoreMut)
	if !ok {
		return nil, errs.StorageMsg("storage backend does not support data modification")
	}
	return m, nil
}

func (e *Engine) execInsert(ctx context.Context, s *ast.Insert) (*Payload, error) {
	m, err := e.mut()
	if err != nil {
		return nil, err
	}
	sc, err := e.schemaFor(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	columns := s.Columns
	if len(columns) == 0 {
		for _, c := range sc.Columns {
			columns = append(columns, c.Name)
		}
	}
	var count int64
	switch src := s.Source.(type) {
	case *ast.Values:
		for _, rowExprs := range src.Rows {
			if len(rowExprs) != len(columns) {
				return nil, errs.Update("column count mismatch: expected %d, got %d", len(columns), len(rowExprs))
			}
			row := schema.NewRow(len(sc.Columns))
			for i, ex := range rowExprs {
				v, err := executor.Eval(ctx, &executor.Env{}, ex)
				if err != nil {
					return nil, err
				}
				if err := row.Set(sc, columns[i], v); err != nil {
					return nil, err
				}
			}
			if err := applyDefaults(ctx, sc, row); err != nil {
				return nil, err
			}
			if err := m.Insert(ctx, s.Table, row); err != nil {
				return nil, err
			}
			count++
		}
	case *ast.Query:
		res, err := executor.ExecuteQuery(ctx, e.Store, e.funcLookup(), src)
		if err != nil {
			return nil, err
		}
		for _, r := range res.Rows {
			if len(r) != len(columns) {
				return nil, errs.Update("column count mismatch: expected %d, got %d", len(columns), len(r))
			}
			row := schema.NewRow(len(sc.Columns))
			for i, v := range r {
				if err := row.Set(sc, columns[i], v); err != nil {
					return nil, err
				}
			}
			if err := applyDefaults(ctx, sc, row); err != nil {
				return nil, err
			}
			if err := m.Insert(ctx, s.Table, row); err != nil {
				return nil, err
			}
			count++
		}
	default:
		return nil, errs.Evaluate("unsupported INSERT source")
	}
	return &Payload{Affected: count}, nil
}

// applyDefaults fills any column still holding its zero-value NULL with its
// declared default expression, evaluated with no row context (defaults must
// be stateless per spec.md §3.3).
func applyDefaults(ctx context.Context, sc *schema.Schema, row schema.Row) error {
	for i, c := range sc.Columns {
		if c.Default == nil || !value.IsNull(row.Values[i]) {
			continue
		}
		v, err := executor.Eval(ctx, &executor.Env{}, *c.Default)
		if err != nil {
			return err
		}
		row.Values[i] = v
	}
	return nil
}

func (e *Engine) execUpdate(ctx context.Context, s *ast.Update, funcs executor.FuncLookup) (*Payload, error) {
	m, err := e.mut()
	if err != nil {
		return nil, err
	}
	sc, err := e.schemaFor(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	it, err := m.Scan(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var count int64
	for {
		row, key, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		env := &executor.Env{Row: map[string]map[string]value.Value{s.Table: rowToMap(sc, row)}, Funcs: funcs}
		if s.Where != nil {
			v, err := executor.Eval(ctx, env, *s.Where)
			if err != nil {
				return nil, err
			}
			b, ok := v.(value.Bool)
			if value.IsNull(v) || !ok || !bool(b) {
				continue
			}
		}
		updated := row.Clone()
		for _, a := range s.Assignments {
			v, err := executor.Eval(ctx, env, a.Value)
			if err != nil {
				return nil, err
			}
			if err := updated.Set(sc, a.Column, v); err != nil {
				return nil, err
			}
		}
		if err := m.Update(ctx, s.Table, key, updated); err != nil {
			return nil, err
		}
		count++
	}
	return &Payload{Affected: count}, nil
}

func rowToMap(sc *schema.Schema, row schema.Row) map[string]value.Value {
	m := make(map[string]value.Value, len(sc.Columns))
	for i, c := range sc.Columns {
		m[c.Name] = row.Values[i]
	}
	return m
}

func (e *Engine) execDelete(ctx context.Context, s *ast.Delete, funcs executor.FuncLookup) (*Payload, error) {
	m, err := e.mut()
	if err != nil {
		return nil, err
	}
	sc, err := e.schemaFor(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	it, err := m.Scan(ctx, s.Table)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var toDelete []value.Key
	for {
		row, key, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if s.Where != nil {
			env := &executor.Env{Row: map[string]map[string]value.Value{s.Table: rowToMap(sc, row)}, Funcs: funcs}
			v, err := executor.Eval(ctx, env, *s.Where)
			if err != nil {
				return nil, err
			}
			b, ok := v.(value.Bool)
			if value.IsNull(v) || !ok || !bool(b) {
				continue
			}
		}
		toDelete = append(toDelete, key)
	}
	for _, k := range toDelete {
		if err := m.Delete(ctx, s.Table, k); err != nil {
			return nil, err
		}
	}
	return &Payload{Affected: int64(len(toDelete))}, nil
}
