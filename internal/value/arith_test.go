package value

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithIntPromotion(t *testing.T) {
	r, err := Arith(OpAdd, I32(2), I64(3))
	require.NoError(t, err)
	assert.Equal(t, I64(5), r)
}

func TestArithFloatWinsOverInt(t *testing.T) {
	r, err := Arith(OpMul, I32(2), F64(1.5))
	require.NoError(t, err)
	assert.Equal(t, F64(3.0), r)
}

func TestArithDecimalWinsOverFloat(t *testing.T) {
	d, err := decimal.NewFromString("1.1")
	require.NoError(t, err)
	r, err := Arith(OpAdd, NewDecimal(d), F64(2))
	require.NoError(t, err)
	dv, ok := r.(Decimal)
	require.True(t, ok)
	assert.Equal(t, "3.1", dv.D.String())
}

func TestArithDivByZero(t *testing.T) {
	_, err := Arith(OpDiv, I64(1), I64(0))
	require.Error(t, err)
}

func TestArithInt64OverflowIsError(t *testing.T) {
	r, err := Arith(OpAdd, I64(math.MaxInt64), I64(1))
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "arithmetic overflow")
}

func TestArithI128Overflow(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	_, err := Arith(OpAdd, NewI128(max), NewI128(big.NewInt(1)))
	require.Error(t, err)
}

