package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/ast"
	"github.com/smflabs/sqlglue/internal/schema"
	"github.com/smflabs/sqlglue/internal/value"
)

func usersSchemas() Schemas {
	return Schemas{
		"users": {
			TableName:  "users",
			Columns:    []schema.ColumnDef{{Name: "id", DataType: value.KindI64}},
			PrimaryKey: []string{"id"},
		},
	}
}

func TestPlanAttachesPrimaryKeyIndexItem(t *testing.T) {
	q := &ast.Query{Body: &ast.Select{From: &ast.TableFactor{Name: "users", Kind: ast.TableNamed}}}
	out, err := Plan(usersSchemas(), q)
	require.NoError(t, err)
	sel := out.(*ast.Query).Body.(*ast.Select)
	require.NotNil(t, sel.From.IndexItem)
	require.NotNil(t, sel.From.IndexItem.PrimaryKey)
}

func TestPlanRejectsUnknownTable(t *testing.T) {
	q := &ast.Query{Body: &ast.Select{From: &ast.TableFactor{Name: "ghosts", Kind: ast.TableNamed}}}
	_, err := Plan(usersSchemas(), q)
	require.Error(t, err)
}

func TestPlanInsertValidatesTable(t *testing.T) {
	_, err := Plan(usersSchemas(), &ast.Insert{Table: "users", Source: &ast.Values{}})
	assert.NoError(t, err)
}
