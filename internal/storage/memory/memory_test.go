package memory

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/value"
)

func usersSchema() *schema.Schema {
	return &schema.Schema{
		TableName: "users",
		Columns: []schema.ColumnDef{
			{Name: "id", DataType: value.KindI64},
			{Name: "name", DataType: value.KindStr, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestInsertScanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTable(ctx, usersSchema()))

	row := schema.NewRow(2)
	require.NoError(t, row.Set(usersSchema(), "id", value.I64(1)))
	require.NoError(t, row.Set(usersSchema(), "name", value.Str("ada")))
	require.NoError(t, s.Insert(ctx, "users", row))

	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	r, k, err := it.Next(ctx)
	require.NoError(t, err)
	assert.True(t, k.HasKey())
	assert.Equal(t, value.I64(1), r.Values[0])
	assert.Equal(t, value.Str("ada"), r.Values[1])

	_, _, err = it.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	row := schema.NewRow(2)
	require.NoError(t, row.Set(sc, "id", value.I64(1)))
	require.NoError(t, s.Insert(ctx, "users", row))
	require.Error(t, s.Insert(ctx, "users", row))
}

func TestUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	row := schema.NewRow(2)
	require.NoError(t, row.Set(sc, "id", value.I64(1)))
	require.NoError(t, s.Insert(ctx, "users", row))

	updated := schema.NewRow(2)
	require.NoError(t, updated.Set(sc, "id", value.I64(1)))
	require.NoError(t, updated.Set(sc, "name", value.Str("grace")))
	k, err := row.Key(sc)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "users", k, updated))

	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	r, _, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Str("grace"), r.Values[1])

	require.NoError(t, s.Delete(ctx, "users", k))
	it, err = s.Scan(ctx, "users")
	require.NoError(t, err)
	_, _, err = it.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAddColumnBackfillsNull(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	row := schema.NewRow(2)
	require.NoError(t, row.Set(sc, "id", value.I64(1)))
	require.NoError(t, s.Insert(ctx, "users", row))

	require.NoError(t, s.AddColumn(ctx, "users", schema.ColumnDef{Name: "age", DataType: value.KindI32, Nullable: true}))
	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	r, _, err := it.Next(ctx)
	require.NoError(t, err)
	require.Len(t, r.Values, 3)
	assert.True(t, value.IsNull(r.Values[2]))
}

func TestTransactionExclusion(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Begin(ctx))
	require.Error(t, s.Begin(ctx))
	require.NoError(t, s.Commit(ctx))
	require.NoError(t, s.Begin(ctx))
	require.NoError(t, s.Rollback(ctx))
}

func TestRollbackUndoesInsertsWithinTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	row1 := schema.NewRow(2)
	require.NoError(t, row1.Set(sc, "id", value.I64(1)))
	require.NoError(t, s.Insert(ctx, "users", row1))

	require.NoError(t, s.Begin(ctx))
	row2 := schema.NewRow(2)
	require.NoError(t, row2.Set(sc, "id", value.I64(2)))
	require.NoError(t, s.Insert(ctx, "users", row2))
	require.NoError(t, s.Rollback(ctx))

	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	var ids []value.Value
	for {
		r, _, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, r.Values[0])
	}
	assert.Equal(t, []value.Value{value.I64(1)}, ids, "rollback must undo writes made inside the transaction")
}

func TestRollbackUndoesUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	row := schema.NewRow(2)
	require.NoError(t, row.Set(sc, "id", value.I64(1)))
	require.NoError(t, row.Set(sc, "name", value.Str("ada")))
	require.NoError(t, s.Insert(ctx, "users", row))
	k, err := row.Key(sc)
	require.NoError(t, err)

	require.NoError(t, s.Begin(ctx))
	updated := schema.NewRow(2)
	require.NoError(t, updated.Set(sc, "id", value.I64(1)))
	require.NoError(t, updated.Set(sc, "name", value.Str("grace")))
	require.NoError(t, s.Update(ctx, "users", k, updated))
	require.NoError(t, s.Delete(ctx, "users", k))
	require.NoError(t, s.Rollback(ctx))

	it, err := s.Scan(ctx, "users")
	require.NoError(t, err)
	r, _, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Str("ada"), r.Values[1], "rollback must restore the pre-transaction row")
}

func TestBeginDoesNotBlockOtherOperations(t *testing.T) {
	ctx := context.Background()
	s := New()
	sc := usersSchema()
	require.NoError(t, s.CreateTable(ctx, sc))
	require.NoError(t, s.Begin(ctx))

	done := make(chan error, 1)
	go func() {
		row := schema.NewRow(2)
		if err := row.Set(sc, "id", value.I64(1)); err != nil {
			done <- err
			return
		}
		done <- s.Insert(ctx, "users", row)
	}()
	require.NoError(t, <-done, "locking per operation must not deadlock a write issued while a transaction is open")
	require.NoError(t, s.Rollback(ctx))
}
