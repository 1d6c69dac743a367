package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/ast"
)

func TestTranslateCreateTable(t *testing.T) {
	stmt, err := Translate(`CREATE TABLE users (id BIGINT NOT NULL, name TEXT, UNIQUE(name))`)
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "users", ct.Name)
	require.Len(t, ct.Columns, 2)
	assert.Equal(t, "id", ct.Columns[0].Name)
	assert.False(t, ct.Columns[0].Nullable)
	assert.Equal(t, [][]string{{"name"}}, ct.Uniques)
}

func TestTranslateCreateTableAsSelect(t *testing.T) {
	stmt, err := Translate(`CREATE TABLE recent AS SELECT id, name FROM users WHERE id > 10`)
	require.NoError(t, err)
	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "recent", ct.Name)
	require.NotNil(t, ct.AsSelect)
	assert.Empty(t, ct.Columns)
}

func TestTranslateSelectBasics(t *testing.T) {
	stmt, err := Translate(`SELECT id, name FROM users WHERE id = 1 ORDER BY name LIMIT 10`)
	require.NoError(t, err)
	q, ok := stmt.(*ast.Query)
	require.True(t, ok)
	sel, ok := q.Body.(*ast.Select)
	require.True(t, ok)
	assert.Len(t, sel.Projection, 2)
	require.Len(t, q.OrderBy, 1)
	assert.True(t, q.OrderBy[0].Asc)
	require.NotNil(t, q.Limit)
}

func TestTranslateJoin(t *testing.T) {
	stmt, err := Translate(`SELECT a.id FROM a JOIN b ON a.id = b.a_id`)
	require.NoError(t, err)
	q := stmt.(*ast.Query)
	sel := q.Body.(*ast.Select)
	require.Len(t, sel.Joins, 1)
	assert.Equal(t, ast.JoinInner, sel.Joins[0].Kind)
}

func TestTranslateCommaJoinRejected(t *testing.T) {
	_, err := Translate(`SELECT * FROM a, b`)
	require.Error(t, err)
}

func TestTranslateOrderByNullsFirstRejected(t *testing.T) {
	_, err := Translate(`SELECT id FROM users ORDER BY id NULLS FIRST`)
	require.Error(t, err)
}

func TestTranslateInsertValues(t *testing.T) {
	stmt, err := Translate(`INSERT INTO users (id, name) VALUES (1, 'ada')`)
	require.NoError(t, err)
	ins := stmt.(*ast.Insert)
	assert.Equal(t, "users", ins.Table)
	assert.Equal(t, []string{"id", "name"}, ins.Columns)
	values, ok := ins.Source.(*ast.Values)
	require.True(t, ok)
	require.Len(t, values.Rows, 1)
}

func TestTranslateInsertSelect(t *testing.T) {
	stmt, err := Translate(`INSERT INTO archive SELECT * FROM users`)
	require.NoError(t, err)
	ins := stmt.(*ast.Insert)
	_, ok := ins.Source.(*ast.Query)
	assert.True(t, ok)
}

func TestTranslateUpdateRejectsQualifiedColumn(t *testing.T) {
	_, err := Translate(`UPDATE users SET users.name = 'x' WHERE id = 1`)
	require.Error(t, err)
}

func TestTranslateDelete(t *testing.T) {
	stmt, err := Translate(`DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)
	del, ok := stmt.(*ast.Delete)
	require.True(t, ok)
	assert.Equal(t, "users", del.Table)
	require.NotNil(t, del.Where)
}

func TestTranslateAlterTableAddColumn(t *testing.T) {
	stmt, err := Translate(`ALTER TABLE users ADD COLUMN age INT DEFAULT 0`)
	require.NoError(t, err)
	alt := stmt.(*ast.AlterTable)
	add, ok := alt.Operation.(ast.AddColumn)
	require.True(t, ok)
	assert.Equal(t, "age", add.Column.Name)
}

func TestTranslateCreateIndex(t *testing.T) {
	stmt, err := Translate(`CREATE INDEX idx_name ON users (name)`)
	require.NoError(t, err)
	ix, ok := stmt.(*ast.CreateIndex)
	require.True(t, ok)
	assert.Equal(t, "users", ix.Table)
	assert.Equal(t, "idx_name", ix.Name)
}

func TestTranslateDropIndexUsesNativeSyntax(t *testing.T) {
	stmt, err := Translate(`DROP INDEX idx_name ON users`)
	require.NoError(t, err)
	dx, ok := stmt.(*ast.DropIndex)
	require.True(t, ok)
	assert.Equal(t, "users", dx.Table)
	assert.Equal(t, "idx_name", dx.Name)
}

func TestTranslateTransactionControl(t *testing.T) {
	for sql, want := range map[string]ast.Statement{
		"BEGIN":    &ast.StartTransaction{},
		"COMMIT":   &ast.Commit{},
		"ROLLBACK": &ast.Rollback{},
	} {
		stmt, err := Translate(sql)
		require.NoError(t, err)
		assert.IsType(t, want, stmt)
	}
}

func TestTranslateShowColumns(t *testing.T) {
	stmt, err := Translate(`SHOW COLUMNS FROM users`)
	require.NoError(t, err)
	sc, ok := stmt.(*ast.ShowColumns)
	require.True(t, ok)
	assert.Equal(t, "users", sc.Table)
}

func TestTranslateShowVersion(t *testing.T) {
	stmt, err := Translate(`SHOW VERSION`)
	require.NoError(t, err)
	sv, ok := stmt.(*ast.ShowVariable)
	require.True(t, ok)
	assert.Equal(t, "version", sv.Name)
}

func TestTranslateCreateFunction(t *testing.T) {
	stmt, err := Translate(`CREATE FUNCTION double(x) AS x * 2`)
	require.NoError(t, err)
	fn, ok := stmt.(*ast.CreateFunction)
	require.True(t, ok)
	assert.Equal(t, "double", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "x", fn.Params[0].Name)
	require.NotNil(t, fn.Body)
}

func TestTranslateDropFunction(t *testing.T) {
	stmt, err := Translate(`DROP FUNCTION double`)
	require.NoError(t, err)
	fn, ok := stmt.(*ast.DropFunction)
	require.True(t, ok)
	assert.Equal(t, "double", fn.Name)
}

func TestTranslateAggregateCountStar(t *testing.T) {
	stmt, err := Translate(`SELECT COUNT(*) FROM users`)
	require.NoError(t, err)
	q := stmt.(*ast.Query)
	sel := q.Body.(*ast.Select)
	require.Len(t, sel.Projection, 1)
}

func TestTranslateSetOperation(t *testing.T) {
	stmt, err := Translate(`SELECT id FROM a UNION SELECT id FROM b`)
	require.NoError(t, err)
	q := stmt.(*ast.Query)
	_, ok := q.Body.(*ast.SetOp)
	assert.True(t, ok)
}

func TestTranslateStatelessDefaultRejectsColumnReference(t *testing.T) {
	_, err := Translate(`CREATE TABLE t (a INT, b INT DEFAULT a)`)
	require.Error(t, err)
}
