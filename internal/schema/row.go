package schema

import (
	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// Row is one tuple of a table, positionally aligned with its Schema's
// Columns slice (spec.md §3.4). Storage back-ends key rows by value.Key;
// the key is not itself stored in Values when the primary key is a
// declared column — it is derived from it on demand via Key.
type Row struct {
	Values []value.Value
}

// NewRow builds a Row with every column defaulted to NULL.
func NewRow(n int) Row {
	vs := make([]value.Value, n)
	for i := range vs {
		vs[i] = value.Null{}
	}
	return Row{Values: vs}
}

// Get returns the value at the named column.
func (r Row) Get(s *Schema, col string) (value.Value, error) {
	i, ok := s.ColumnPosition(col)
	if !ok {
		return nil, errs.Fetch("unknown column %q", col)
	}
	return r.Values[i], nil
}

// Set assigns the value at the named column, returning an error if the
// column doesn't exist or the value violates its NOT NULL constraint.
func (r Row) Set(s *Schema, col string, v value.Value) error {
	i, ok := s.ColumnPosition(col)
	if !ok {
		return errs.Update("unknown column %q", col)
	}
	cd := s.Columns[i]
	if !cd.Nullable && value.IsNull(v) {
		return errs.Update("column %q does not accept NULL", col)
	}
	r.Values[i] = v
	return nil
}

// Key derives this row's primary-key value. Rows of tables with no declared
// primary key return value.NoKey.
func (r Row) Key(s *Schema) (value.Key, error) {
	if len(s.PrimaryKey) == 0 {
		return value.NoKey, nil
	}
	if len(s.PrimaryKey) == 1 {
		v, err := r.Get(s, s.PrimaryKey[0])
		if err != nil {
			return value.Key{}, err
		}
		return value.NewKey(v)
	}
	// Composite primary keys are encoded as a single Bytea key built from the
	// order-preserving encoding of each component, so multi-column range
	// scans remain possible without a second index structure.
	var buf []byte
	for _, col := range s.PrimaryKey {
		v, err := r.Get(s, col)
		if err != nil {
			return value.Key{}, err
		}
		k, err := value.NewKey(v)
		if err != nil {
			return value.Key{}, err
		}
		buf = append(buf, k.Encode()...)
	}
	return value.NewKey(value.Bytea(buf))
}

// Clone returns a copy of r whose Values slice is independent of r's.
func (r Row) Clone() Row {
	vs := make([]value.Value, len(r.Values))
	copy(vs, r.Values)
	return Row{Values: vs}
}
