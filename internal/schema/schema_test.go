package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/value"
)

func sampleSchema() *Schema {
	return &Schema{
		TableName: "users",
		Columns: []ColumnDef{
			{Name: "id", DataType: value.KindI64},
			{Name: "name", DataType: value.KindStr, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestSchemaValidateDuplicateColumn(t *testing.T) {
	s := sampleSchema()
	s.Columns = append(s.Columns, ColumnDef{Name: "id", DataType: value.KindStr})
	require.Error(t, s.Validate())
}

func TestSchemaValidateUnknownPrimaryKey(t *testing.T) {
	s := sampleSchema()
	s.PrimaryKey = []string{"missing"}
	require.Error(t, s.Validate())
}

func TestSchemaValidateOK(t *testing.T) {
	s := sampleSchema()
	require.NoError(t, s.Validate())
}

func TestRowGetSet(t *testing.T) {
	s := sampleSchema()
	r := NewRow(len(s.Columns))
	require.NoError(t, r.Set(s, "id", value.I64(7)))
	v, err := r.Get(s, "id")
	require.NoError(t, err)
	assert.Equal(t, value.I64(7), v)
}

func TestRowSetRejectsNullOnNotNull(t *testing.T) {
	s := sampleSchema()
	r := NewRow(len(s.Columns))
	require.Error(t, r.Set(s, "id", value.Null{}))
}

func TestRowKeyFromSinglePrimaryKey(t *testing.T) {
	s := sampleSchema()
	r := NewRow(len(s.Columns))
	require.NoError(t, r.Set(s, "id", value.I64(42)))
	k, err := r.Key(s)
	require.NoError(t, err)
	assert.True(t, k.HasKey())
}

func TestParseDataTypeWithPrecision(t *testing.T) {
	k, err := ParseDataType("VARCHAR(255)")
	require.NoError(t, err)
	assert.Equal(t, value.KindStr, k)
}

func TestParseDataTypeUnknown(t *testing.T) {
	_, err := ParseDataType("FROBNICATE")
	require.Error(t, err)
}
