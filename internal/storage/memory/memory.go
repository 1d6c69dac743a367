// Package memory is the reference storage back-end: every row lives in a
// process-local, mutex-guarded map keyed by value.Key, with secondary
// indexes kept as entry slices that IndexScan sorts on read. It implements
// every capability
// interface in internal/storage, the same way the teacher's own tests
// exercise a single concrete dialect end-to-end rather than mocking the
// registry (internal/introspect's dialect packages are themselves "real"
// implementations registered under a name, not test doubles).
package memory

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/storage"
	"github.com/smflabs/sqlglue/internal/value"
)

type table struct {
	schema *schema.Schema
	rows   map[string]schema.Row // keyed by Key.Encode()
	order  []string              // insertion order of keys, for tables with no PK
	nextID int64                 // synthetic key counter for tables with no PK
}

// indexEntry is one row reachable from a secondary index, with that row's
// value of the index's comparison expression.
type indexEntry struct {
	cmp value.Value
	key string
}

type Store struct {
	mu      sync.RWMutex
	tables  map[string]*table
	indexes map[string]map[string][]indexEntry // table -> index name -> entries
	funcs   map[string]storage.CustomFunctionDef
	inTx    bool
	undoLog []func(*Store) // reversed and replayed by Rollback, cleared by Begin/Commit
}

// record appends op to the undo log when a transaction is open, so Rollback
// can replay it in reverse. A no-op outside a transaction: autocommit
// statements never pay for log bookkeeping they'll never use. Callers invoke
// this while already holding s.mu for the operation being logged; op itself
// must assume s.mu is held by its caller (Rollback) rather than acquire it.
func (s *Store) record(op func(*Store)) {
	if s.inTx {
		s.undoLog = append(s.undoLog, op)
	}
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		tables:  make(map[string]*table),
		indexes: make(map[string]map[string][]indexEntry),
		funcs:   make(map[string]storage.CustomFunctionDef),
	}
}

func (s *Store) Schema(_ context.Context, name string) (*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, errs.Fetch("table %q does not exist", name)
	}
	return t.schema, nil
}

func (s *Store) Scan(ctx context.Context, name string) (storage.RowIter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, errs.Fetch("table %q does not exist", name)
	}
	rows := make([]schema.Row, 0, len(t.rows))
	for _, k := range t.order {
		rows = append(rows, t.rows[k].Clone())
	}
	return &sliceIter{rows: rows, schema: t.schema}, nil
}

type sliceIter struct {
	rows   []schema.Row
	schema *schema.Schema
	pos    int
}

func (it *sliceIter) Next(ctx context.Context) (schema.Row, value.Key, error) {
	if err := ctx.Err(); err != nil {
		return schema.Row{}, value.Key{}, err
	}
	if it.pos >= len(it.rows) {
		return schema.Row{}, value.Key{}, io.EOF
	}
	r := it.rows[it.pos]
	it.pos++
	k, err := r.Key(it.schema)
	if err != nil {
		return schema.Row{}, value.Key{}, err
	}
	return r, k, nil
}

func (it *sliceIter) Close() error { return nil }

func (s *Store) Insert(_ context.Context, name string, row schema.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Fetch("table %q does not exist", name)
	}
	k, err := row.Key(t.schema)
	if err != nil {
		return err
	}
	enc := string(k.Encode())
	if k.HasKey() {
		if _, exists := t.rows[enc]; exists {
			return errs.StorageMsg("duplicate key on table %q", name)
		}
	} else {
		enc = syntheticKey(&t.nextID)
	}
	t.rows[enc] = row.Clone()
	t.order = append(t.order, enc)
	s.reindexRow(name, t, enc, row)
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		delete(t.rows, enc)
		for i, k := range t.order {
			if k == enc {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
		s.removeFromIndexes(name, enc)
	})
	return nil
}

func syntheticKey(counter *int64) string {
	*counter++
	return "\x00synthetic\x00" + value.I64(*counter).SQL()
}

func (s *Store) Update(_ context.Context, name string, key value.Key, row schema.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Fetch("table %q does not exist", name)
	}
	enc := string(key.Encode())
	old, exists := t.rows[enc]
	if !exists {
		return errs.Update("no row with the given key in table %q", name)
	}
	oldClone := old.Clone()
	t.rows[enc] = row.Clone()
	s.reindexRow(name, t, enc, row)
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		t.rows[enc] = oldClone
		s.reindexRow(name, t, enc, oldClone)
	})
	return nil
}

func (s *Store) Delete(_ context.Context, name string, key value.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Fetch("table %q does not exist", name)
	}
	enc := string(key.Encode())
	old, exists := t.rows[enc]
	if !exists {
		return errs.Update("no row with the given key in table %q", name)
	}
	oldClone := old.Clone()
	pos := -1
	for i, k := range t.order {
		if k == enc {
			pos = i
			break
		}
	}
	delete(t.rows, enc)
	if pos >= 0 {
		t.order = append(t.order[:pos], t.order[pos+1:]...)
	}
	s.removeFromIndexes(name, enc)
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		t.rows[enc] = oldClone
		if pos >= 0 && pos <= len(t.order) {
			restored := make([]string, 0, len(t.order)+1)
			restored = append(restored, t.order[:pos]...)
			restored = append(restored, enc)
			restored = append(restored, t.order[pos:]...)
			t.order = restored
		} else {
			t.order = append(t.order, enc)
		}
		s.reindexRow(name, t, enc, oldClone)
	})
	return nil
}

func (s *Store) CreateTable(_ context.Context, sc *schema.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[sc.TableName]; exists {
		return errs.Alter("table %q already exists", sc.TableName)
	}
	name := sc.TableName
	s.tables[name] = &table{schema: sc.Clone(), rows: make(map[string]schema.Row)}
	s.indexes[name] = make(map[string][]indexEntry)
	s.record(func(s *Store) {
		delete(s.tables, name)
		delete(s.indexes, name)
	})
	return nil
}

func (s *Store) DropTable(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tables[name]
	if !exists {
		return errs.Alter("table %q does not exist", name)
	}
	ix := s.indexes[name]
	delete(s.tables, name)
	delete(s.indexes, name)
	s.record(func(s *Store) {
		s.tables[name] = t
		s.indexes[name] = ix
	})
	return nil
}

func (s *Store) AddColumn(_ context.Context, name string, col schema.ColumnDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Alter("table %q does not exist", name)
	}
	if _, exists := t.schema.ColumnByName(col.Name); exists {
		return errs.Alter("column %q already exists on table %q", col.Name, name)
	}
	t.schema.Columns = append(t.schema.Columns, col)
	for k, row := range t.rows {
		row.Values = append(row.Values, value.Null{})
		t.rows[k] = row
	}
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		t.schema.Columns = t.schema.Columns[:len(t.schema.Columns)-1]
		for k, row := range t.rows {
			row.Values = row.Values[:len(row.Values)-1]
			t.rows[k] = row
		}
	})
	return nil
}

func (s *Store) DropColumn(_ context.Context, name string, col string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Alter("table %q does not exist", name)
	}
	pos, exists := t.schema.ColumnPosition(col)
	if !exists {
		return errs.Alter("column %q does not exist on table %q", col, name)
	}
	removedDef := t.schema.Columns[pos]
	removedValues := make(map[string]value.Value, len(t.rows))
	t.schema.Columns = append(t.schema.Columns[:pos], t.schema.Columns[pos+1:]...)
	for k, row := range t.rows {
		removedValues[k] = row.Values[pos]
		row.Values = append(row.Values[:pos], row.Values[pos+1:]...)
		t.rows[k] = row
	}
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		cols := make([]schema.ColumnDef, 0, len(t.schema.Columns)+1)
		cols = append(cols, t.schema.Columns[:pos]...)
		cols = append(cols, removedDef)
		cols = append(cols, t.schema.Columns[pos:]...)
		t.schema.Columns = cols
		for k, row := range t.rows {
			v, ok := removedValues[k]
			if !ok {
				continue
			}
			values := make([]value.Value, 0, len(row.Values)+1)
			values = append(values, row.Values[:pos]...)
			values = append(values, v)
			values = append(values, row.Values[pos:]...)
			row.Values = values
			t.rows[k] = row
		}
	})
	return nil
}

func (s *Store) RenameColumn(_ context.Context, name, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Alter("table %q does not exist", name)
	}
	pos, exists := t.schema.ColumnPosition(from)
	if !exists {
		return errs.Alter("column %q does not exist on table %q", from, name)
	}
	t.schema.Columns[pos].Name = to
	renamedPK := -1
	for i, pk := range t.schema.PrimaryKey {
		if pk == from {
			t.schema.PrimaryKey[i] = to
			renamedPK = i
			break
		}
	}
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		t.schema.Columns[pos].Name = from
		if renamedPK >= 0 {
			t.schema.PrimaryKey[renamedPK] = from
		}
	})
	return nil
}

func (s *Store) CreateIndex(_ context.Context, name string, ix schema.IndexDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Alter("table %q does not exist", name)
	}
	if _, exists := t.schema.IndexByName(ix.Name); exists {
		return errs.Alter("index %q already exists on table %q", ix.Name, name)
	}
	t.schema.Indexes = append(t.schema.Indexes, ix)
	if s.indexes[name] == nil {
		s.indexes[name] = make(map[string][]indexEntry)
	}
	s.indexes[name][ix.Name] = nil
	for _, k := range t.order {
		s.reindexRow(name, t, k, t.rows[k])
	}
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		for i, def := range t.schema.Indexes {
			if def.Name == ix.Name {
				t.schema.Indexes = append(t.schema.Indexes[:i], t.schema.Indexes[i+1:]...)
				break
			}
		}
		delete(s.indexes[name], ix.Name)
	})
	return nil
}

func (s *Store) DropIndex(_ context.Context, name, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return errs.Alter("table %q does not exist", name)
	}
	pos := -1
	for i, ix := range t.schema.Indexes {
		if ix.Name == indexName {
			pos = i
			break
		}
	}
	if pos < 0 {
		return errs.Alter("index %q does not exist on table %q", indexName, name)
	}
	removedDef := t.schema.Indexes[pos]
	removedEntries := s.indexes[name][indexName]
	t.schema.Indexes = append(t.schema.Indexes[:pos], t.schema.Indexes[pos+1:]...)
	delete(s.indexes[name], indexName)
	s.record(func(s *Store) {
		t := s.tables[name]
		if t == nil {
			return
		}
		defs := make([]schema.IndexDef, 0, len(t.schema.Indexes)+1)
		defs = append(defs, t.schema.Indexes[:pos]...)
		defs = append(defs, removedDef)
		defs = append(defs, t.schema.Indexes[pos:]...)
		t.schema.Indexes = defs
		if s.indexes[name] == nil {
			s.indexes[name] = make(map[string][]indexEntry)
		}
		s.indexes[name][indexName] = removedEntries
	})
	return nil
}

// IndexScan returns rows of table in the order defined by the named index's
// comparison values. Index expressions that aren't bare column references
// get no index entries in this reference backend; CreateIndex accepts them
// and IndexScan falls back to a full scan in insertion order, which keeps
// IndexMut total without requiring an expression evaluator dependency
// inside this package. Nothing in internal/executor calls IndexScan:
// queries read tables through Scan.
func (s *Store) IndexScan(ctx context.Context, name, indexName string) (storage.RowIter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, errs.Fetch("table %q does not exist", name)
	}
	if def, ok := t.schema.IndexByName(indexName); ok && columnNameOf(def) == "" {
		rows := make([]schema.Row, 0, len(t.order))
		for _, k := range t.order {
			rows = append(rows, t.rows[k].Clone())
		}
		return &sliceIter{rows: rows, schema: t.schema}, nil
	}
	entries := s.indexes[name][indexName]
	sorted := append([]indexEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return value.OrderCompare(sorted[i].cmp, sorted[j].cmp) < 0
	})
	rows := make([]schema.Row, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, t.rows[e.key].Clone())
	}
	return &sliceIter{rows: rows, schema: t.schema}, nil
}

func (s *Store) reindexRow(name string, t *table, enc string, row schema.Row) {
	for ixName, ix := range indexDefsByName(t.schema) {
		pos, ok := t.schema.ColumnPosition(columnNameOf(ix))
		if !ok {
			continue
		}
		entries := s.indexes[name][ixName]
		entries = removeEntry(entries, enc)
		entries = append(entries, indexEntry{cmp: row.Values[pos], key: enc})
		s.indexes[name][ixName] = entries
	}
}

func (s *Store) removeFromIndexes(name, enc string) {
	for ixName, entries := range s.indexes[name] {
		s.indexes[name][ixName] = removeEntry(entries, enc)
	}
}

func removeEntry(entries []indexEntry, enc string) []indexEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.key != enc {
			out = append(out, e)
		}
	}
	return out
}

func indexDefsByName(sc *schema.Schema) map[string]schema.IndexDef {
	out := make(map[string]schema.IndexDef, len(sc.Indexes))
	for _, ix := range sc.Indexes {
		out[ix.Name] = ix
	}
	return out
}

// columnNameOf extracts the bare column name from an index expression when
// it is exactly a column reference; empty otherwise. Defined here rather
// than in internal/ast to avoid this package depending on ast for a single
// type-switch.
func columnNameOf(ix schema.IndexDef) string {
	type colExpr interface{ ColumnName() string }
	if ce, ok := ix.Expr.(colExpr); ok {
		return ce.ColumnName()
	}
	return ""
}

func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Columns(_ context.Context, name string) ([]schema.ColumnDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, errs.Fetch("table %q does not exist", name)
	}
	return append([]schema.ColumnDef(nil), t.schema.Columns...), nil
}

func (s *Store) Indexes(_ context.Context, name string) ([]schema.IndexDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, errs.Fetch("table %q does not exist", name)
	}
	return append([]schema.IndexDef(nil), t.schema.Indexes...), nil
}

func (s *Store) RegisterFunction(_ context.Context, name string, def storage.CustomFunctionDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.funcs[name]
	s.funcs[name] = def
	s.record(func(s *Store) {
		if existed {
			s.funcs[name] = prev
		} else {
			delete(s.funcs, name)
		}
	})
	return nil
}

func (s *Store) LookupFunction(_ context.Context, name string) (storage.CustomFunctionDef, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.funcs[name]
	return def, ok, nil
}

func (s *Store) ListFunctions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.funcs))
	for name := range s.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DropFunction(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.funcs[name]
	if !ok {
		return errs.Alter("function %q does not exist", name)
	}
	delete(s.funcs, name)
	s.record(func(s *Store) {
		s.funcs[name] = def
	})
	return nil
}

// Begin/Commit/Rollback implement storage.Transaction via an undo log
// rather than holding the write lock for the transaction's duration or
// snapshotting the whole store: every mutating method above appends its own
// inverse to s.undoLog (through record) while a transaction is open, and
// Rollback replays that log back to front. Grounded on original_source's
// memory-storage Log/undo.rs design, where every mutation records a Log
// variant and undo() pattern-matches it back to the prior state; here each
// log entry is simply the closure that performs its own specific reversal.
// Each Insert/Update/Delete/DDL call still only holds s.mu for its own
// duration, so a long-running explicit transaction never blocks concurrent
// readers on unrelated tables for its whole lifetime.
func (s *Store) Begin(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTx {
		return errs.StorageMsg("transaction already in progress")
	}
	s.inTx = true
	s.undoLog = nil
	return nil
}

func (s *Store) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inTx {
		return errs.StorageMsg("no transaction in progress")
	}
	s.inTx = false
	s.undoLog = nil
	return nil
}

func (s *Store) Rollback(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inTx {
		return errs.StorageMsg("no transaction in progress")
	}
	for i := len(s.undoLog) - 1; i >= 0; i-- {
		s.undoLog[i](s)
	}
	s.undoLog = nil
	s.inTx = false
	return nil
}

var (
	_ storage.Store          = (*Store)(nil)
	_ storage.StoreMut       = (*Store)(nil)
	_ storage.AlterAddTable  = (*Store)(nil)
	_ storage.AlterTable     = (*Store)(nil)
	_ storage.IndexMut       = (*Store)(nil)
	_ storage.Metadata       = (*Store)(nil)
	_ storage.CustomFunction = (*Store)(nil)
	_ storage.Transaction    = (*Store)(nil)
)
