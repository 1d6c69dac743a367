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

func TestAutocommitRollsBackFailedStatement(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	run(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada')`)

	_, err := eng.Execute(context.Background(), `INSERT INTO users (id) VALUES (1, 'x')`)
	assert.Error(t, err)

	p := run(t, eng, `SELECT id FROM users`)
	assert.Len(t, p.Rows, 1, "the failed statement's autocommit wrapper must not have left a stray write")
}

func TestExplicitTransactionSpansMultipleStatements(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE users (id BIGINT NOT NULL)`)
	run(t, eng, `BEGIN`)
	run(t, eng, `INSERT INTO users (id) VALUES (1)`)
	run(t, eng, `INSERT INTO users (id) VALUES (2)`)
	run(t, eng, `COMMIT`)

	p := run(t, eng, `SELECT id FROM users ORDER BY id`)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, value.I64(1), p.Rows[0][0])
	assert.Equal(t, value.I64(2), p.Rows[1][0])
}

func TestCommitWithoutBeginErrors(t *testing.T) {
	eng := glue.New(memory.New())
	_, err := eng.Execute(context.Background(), `COMMIT`)
	assert.Error(t, err)
}

func TestShowFunctionsListsRegisteredFunctions(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE FUNCTION double(x) AS x * 2`)

	p := run(t, eng, `SHOW FUNCTIONS`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.Str("double"), p.Rows[0][0])
}
