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

func TestInsertSelectCopiesRows(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada')`)
	run(t, eng, `CREATE TABLE archive (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO archive SELECT * FROM users`)

	p := run(t, eng, `SELECT id, name FROM archive`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(1), p.Rows[0][0])
}

func TestInsertColumnCountMismatchErrors(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)

	_, err := eng.Execute(context.Background(), `INSERT INTO users (id) VALUES (1, 'ada')`)
	assert.Error(t, err)
}

func TestUpdateAppliesOnlyToMatchingRows(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'grace')`)
	run(t, eng, `UPDATE users SET name = 'hopper' WHERE id = 2`)

	p := run(t, eng, `SELECT id, name FROM users ORDER BY id`)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, value.Str("ada"), p.Rows[0][1])
	assert.Equal(t, value.Str("hopper"), p.Rows[1][1])
}

func TestUpdateRejectsQualifiedAssignmentTarget(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)

	_, err := eng.Execute(context.Background(), `UPDATE users SET users.name = 'x' WHERE id = 1`)
	assert.Error(t, err)
}

func TestDeleteRemovesMatchingRowsOnly(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'grace')`)
	run(t, eng, `DELETE FROM users WHERE id = 1`)

	p := run(t, eng, `SELECT id FROM users`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(2), p.Rows[0][0])
}
