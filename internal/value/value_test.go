package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "INT32", KindI32.String())
	assert.Equal(t, "UNKNOWN", Kind(255).String())
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindI64.IsInteger())
	assert.True(t, KindI64.IsSigned())
	assert.False(t, KindU64.IsSigned())
	assert.True(t, KindF64.IsFloat())
	assert.True(t, KindDecimal.IsNumeric())
	assert.True(t, KindDate.IsTemporal())
	assert.False(t, KindStr.IsTemporal())
}

func TestSQLRendering(t *testing.T) {
	assert.Equal(t, "NULL", Null{}.SQL())
	assert.Equal(t, "TRUE", Bool(true).SQL())
	assert.Equal(t, "42", I32(42).SQL())
	assert.Equal(t, "'it''s'", Str("it's").SQL())
}

func TestMapOrderPreserved(t *testing.T) {
	m := NewMap()
	m.Set("b", I32(2))
	m.Set("a", I32(1))
	m.Set("b", I32(20))
	require.Equal(t, []string{"b", "a"}, m.Keys)
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, I32(20), v)
}
