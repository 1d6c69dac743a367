package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastNumericWidening(t *testing.T) {
	r, err := Cast(I8(5), KindI64)
	require.NoError(t, err)
	assert.Equal(t, I64(5), r)
}

func TestCastNumericNarrowingOverflow(t *testing.T) {
	_, err := Cast(I64(300), KindI8)
	require.Error(t, err)
}

func TestCastStrToInt(t *testing.T) {
	r, err := Cast(Str("42"), KindI32)
	require.NoError(t, err)
	assert.Equal(t, I32(42), r)
}

func TestCastIntToStr(t *testing.T) {
	r, err := Cast(I32(42), KindStr)
	require.NoError(t, err)
	assert.Equal(t, Str("42"), r)
}

func TestCastStrToDate(t *testing.T) {
	r, err := Cast(Str("2024-01-15"), KindDate)
	require.NoError(t, err)
	d, ok := r.(Date)
	require.True(t, ok)
	assert.Equal(t, 2024, d.T.Year())
}

func TestCastNullPropagates(t *testing.T) {
	r, err := Cast(Null{}, KindI32)
	require.NoError(t, err)
	assert.True(t, IsNull(r))
}

func TestCastUnimplemented(t *testing.T) {
	_, err := Cast(Point{X: 1, Y: 2}, KindI32)
	require.Error(t, err)
}

func TestCastStrToUuid(t *testing.T) {
	_, err := Cast(Str("not-a-uuid"), KindUuid)
	require.Error(t, err)
}
