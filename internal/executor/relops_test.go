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

func mustExec(t *testing.T, eng *glue.Engine, sql string) *glue.Payload {
	t.Helper()
	p, err := eng.Execute(context.Background(), sql)
	require.NoError(t, err)
	return p
}

func TestSelectStarReportsColumns(t *testing.T) {
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)
	mustExec(t, eng, `INSERT INTO users (id, name) VALUES (1, 'ada')`)

	p := mustExec(t, eng, `SELECT * FROM users`)
	var names []string
	for _, c := range p.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "name"}, names)
	require.Len(t, p.Rows, 1)
}

func TestSelectStarReportsColumnsWithNoRows(t *testing.T) {
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE users (id BIGINT NOT NULL, name TEXT)`)

	p := mustExec(t, eng, `SELECT * FROM users`)
	var names []string
	for _, c := range p.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "name"}, names)
	assert.Empty(t, p.Rows)
}

func TestLeftOuterJoinWildcardPadsNulls(t *testing.T) {
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE a (id BIGINT NOT NULL, label TEXT)`)
	mustExec(t, eng, `CREATE TABLE b (a_id BIGINT NOT NULL, note TEXT)`)
	mustExec(t, eng, `INSERT INTO a (id, label) VALUES (1, 'x')`)

	p := mustExec(t, eng, `SELECT * FROM a LEFT JOIN b ON a.id = b.a_id`)
	var names []string
	for _, c := range p.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "label", "a_id", "note"}, names)

	require.Len(t, p.Rows, 1)
	row := p.Rows[0]
	require.Len(t, row, 4)
	assert.Equal(t, value.I64(1), row[0])
	assert.True(t, value.IsNull(row[2]), "unmatched right side should be NULL, got %v", row[2])
	assert.True(t, value.IsNull(row[3]), "unmatched right side should be NULL, got %v", row[3])
}

func TestQualifiedWildcardOnlyExpandsOneSide(t *testing.T) {
	eng := glue.New(memory.New())
	mustExec(t, eng, `CREATE TABLE a (id BIGINT NOT NULL, label TEXT)`)
	mustExec(t, eng, `CREATE TABLE b (a_id BIGINT NOT NULL, note TEXT)`)
	mustExec(t, eng, `INSERT INTO a (id, label) VALUES (1, 'x')`)
	mustExec(t, eng, `INSERT INTO b (a_id, note) VALUES (1, 'y')`)

	p := mustExec(t, eng, `SELECT a.* FROM a JOIN b ON a.id = b.a_id`)
	var names []string
	for _, c := range p.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "label"}, names)
}
