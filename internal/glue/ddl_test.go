package glue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/glue"
	"github.com/smflabs/sqlglue/internal/storage/memory"
	"github.com/smflabs/sqlglue/internal/value"
)

func TestCreateTableThenInsertAndSelect(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada')`)

	p := run(t, eng, `SELECT id, name FROM users`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(1), p.Rows[0][0])
	assert.Equal(t, value.Str("ada"), p.Rows[0][1])
}

func TestCreateTableIfNotExistsIsIdempotent(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL)`)
	run(t, eng, `INSERT INTO users (id) VALUES (1)`)

	_, err := eng.Execute(context.Background(), `CREATE TABLE IF NOT EXISTS users (id BIGINT NOT NULL)`)
	require.NoError(t, err)

	p := run(t, eng, `SELECT id FROM users`)
	assert.Len(t, p.Rows, 1, "a no-op CREATE TABLE IF NOT EXISTS must not touch existing data")
}

func TestDropTableRemovesSchema(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL)`)
	run(t, eng, `DROP TABLE users`)

	_, err := eng.Execute(context.Background(), `SELECT * FROM users`)
	assert.Error(t, err)
}

func TestAlterTableAddColumnDefaultsExistingRows(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL)`)
	run(t, eng, `INSERT INTO users (id) VALUES (1)`)
	run(t, eng, `ALTER TABLE users ADD COLUMN age BIGINT DEFAULT 0`)

	p := run(t, eng, `SELECT id, age FROM users`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(0), p.Rows[0][1])
}

func TestAlterTableAddColumnRequiresNullOrDefault(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL)`)
	run(t, eng, `INSERT INTO users (id) VALUES (1)`)

	_, err := eng.Execute(context.Background(), `ALTER TABLE users ADD COLUMN age BIGINT NOT NULL`)
	assert.Error(t, err)
}

func TestCreateIndexThenShowIndexes(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `CREATE INDEX idx_name ON users (name)`)

	p := run(t, eng, `SHOW INDEXES FROM users`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.Str("idx_name"), p.Rows[0][0])
}

func TestDropIndexRemovesIt(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `CREATE INDEX idx_name ON users (name)`)
	run(t, eng, `DROP INDEX idx_name ON users`)

	p := run(t, eng, `SHOW INDEXES FROM users`)
	assert.Empty(t, p.Rows)
}

func TestCreateAndDropFunction(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE FUNCTION double(x) AS x * 2`)
	run(t, eng, `CREATE TABLE nums (n BIGINT NOT NULL)`)
	run(t, eng, `INSERT INTO nums (n) VALUES (3)`)

	p := run(t, eng, `SELECT double(n) FROM nums`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(6), p.Rows[0][0])

	run(t, eng, `DROP FUNCTION double`)
	_, err := eng.Execute(context.Background(), `SELECT double(n) FROM nums`)
	assert.Error(t, err)
}

func TestShowVersion(t *testing.T) {
	eng := glue.New(memory.New())
	p := run(t, eng, `SHOW VERSION`)
	require.Len(t, p.Rows, 1)
	_, ok := p.Rows[0][0].(value.Str)
	assert.True(t, ok)
}
