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

func run(t *testing.T, eng *glue.Engine, sql string) *glue.Payload {
	t.Helper()
	p, err := eng.Execute(context.Background(), sql)
	require.NoError(t, err, "sql: %s", sql)
	return p
}

// TestScenarioPKProbe is S1: a WHERE clause against a primary key column
// must resolve to exactly the one matching row.
func TestScenarioPKProbe(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE U (id BIGINT PRIMARY KEY, name TEXT)`)
	run(t, eng, `INSERT INTO U VALUES (1,'a'),(2,'b'),(3,'c')`)

	p := run(t, eng, `SELECT name FROM U WHERE id = 2`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.Str("b"), p.Rows[0][0])
}

// TestScenarioAggregateGroup is S2.
func TestScenarioAggregateGroup(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE S (g TEXT, v BIGINT)`)
	run(t, eng, `INSERT INTO S VALUES ('x',1),('x',3),('y',2),('x',NULL)`)

	p := run(t, eng, `SELECT g, COUNT(v), SUM(v) FROM S GROUP BY g ORDER BY g`)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, []value.Value{value.Str("x"), value.I64(2), value.I64(4)}, p.Rows[0])
	assert.Equal(t, []value.Value{value.Str("y"), value.I64(1), value.I64(2)}, p.Rows[1])
}

// TestScenarioNullOrdering is S3: NULL sorts before every non-null value in
// an ascending ORDER BY.
func TestScenarioNullOrdering(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE S (g TEXT, v BIGINT)`)
	run(t, eng, `INSERT INTO S VALUES ('x',1),('x',3),('y',2),('x',NULL)`)

	p := run(t, eng, `SELECT v FROM S ORDER BY v ASC`)
	require.Len(t, p.Rows, 4)
	assert.True(t, value.IsNull(p.Rows[0][0]))
	assert.Equal(t, value.I64(1), p.Rows[1][0])
	assert.Equal(t, value.I64(2), p.Rows[2][0])
	assert.Equal(t, value.I64(3), p.Rows[3][0])
}

// TestScenarioLikeTypeError is S4: LIKE against a non-string operand is a
// hard evaluation error, not a silently-empty result.
func TestScenarioLikeTypeError(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE S (g TEXT, v BIGINT)`)
	run(t, eng, `INSERT INTO S VALUES ('x',1)`)

	_, err := eng.Execute(context.Background(), `SELECT * FROM S WHERE v LIKE 'x'`)
	assert.Error(t, err)
}

// TestScenarioTransactionRollback is S5: a rolled-back transaction leaves
// no trace of its writes.
func TestScenarioTransactionRollback(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE T (id BIGINT)`)
	run(t, eng, `INSERT INTO T VALUES (1)`)
	run(t, eng, `BEGIN`)
	run(t, eng, `INSERT INTO T VALUES (2)`)
	run(t, eng, `ROLLBACK`)

	p := run(t, eng, `SELECT * FROM T`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(1), p.Rows[0][0])
}

// TestScenarioCTASInfersTypes is S6: CREATE TABLE ... AS SELECT infers each
// column's type from the first non-null value in the result set and copies
// the rows into the new table.
func TestScenarioCTASInfersTypes(t *testing.T) {
	eng := glue.New(memory.New())
	run(t, eng, `CREATE TABLE A (id BIGINT, name TEXT)`)
	run(t, eng, `INSERT INTO A VALUES (1,'x')`)
	run(t, eng, `CREATE TABLE B AS SELECT * FROM A`)

	p := run(t, eng, `SELECT * FROM B`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, []value.Value{value.I64(1), value.Str("x")}, p.Rows[0])
}
