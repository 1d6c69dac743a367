package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/glue"
	"github.com/smflabs/sqlglue/internal/storage/memory"
	"github.com/smflabs/sqlglue/internal/value"
)

func newOrdersEngine(t *testing.T) *glue.Engine {
	t.Helper()
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE orders (id BIGINT NOT NULL, region TEXT NOT NULL, amount BIGINT NOT NULL)`)
	mustExec(t, eng, `INSERT INTO orders (id, region, amount) VALUES (1, 'east', 10)`)
	mustExec(t, eng, `INSERT INTO orders (id, region, amount) VALUES (2, 'east', 20)`)
	mustExec(t, eng, `INSERT INTO orders (id, region, amount) VALUES (3, 'west', 5)`)
	return eng
}

func TestGroupByAggregatesPerBucket(t *testing.T) {
	eng := newOrdersEngine(t)
	p := mustExec(t, eng, `SELECT region, SUM(amount) AS total FROM orders GROUP BY region ORDER BY region`)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, value.Str("east"), p.Rows[0][0])
	assert.Equal(t, value.Str("west"), p.Rows[1][0])
}

func TestBareCountStarOnEmptyTableYieldsZero(t *testing.T) {
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE orders (id BIGINT NOT NULL)`)
	p := mustExec(t, eng, `SELECT COUNT(*) AS n FROM orders`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.I64(0), p.Rows[0][0])
}

func TestHavingFiltersGroups(t *testing.T) {
	eng := newOrdersEngine(t)
	p := mustExec(t, eng, `SELECT region, SUM(amount) AS total FROM orders GROUP BY region HAVING SUM(amount) > 15`)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, value.Str("east"), p.Rows[0][0])
}

func TestWildcardInAggregateQueryRejected(t *testing.T) {
	eng := newOrdersEngine(t)
	_, err := eng.Execute(context.Background(), `SELECT * FROM orders GROUP BY region`)
	assert.Error(t, err)
}
