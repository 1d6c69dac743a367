package value

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRejectsFloat(t *testing.T) {
	_, err := NewKey(F64(1.5))
	require.Error(t, err)
}

func TestKeyEncodeOrderPreservingInt(t *testing.T) {
	k1, err := NewKey(I64(-5))
	require.NoError(t, err)
	k2, err := NewKey(I64(5))
	require.NoError(t, err)
	assert.Negative(t, k1.Compare(k2))
	assert.True(t, bytes.Compare(k1.Encode(), k2.Encode()) < 0)
}

func TestKeyEncodeOrderPreservingStr(t *testing.T) {
	k1, err := NewKey(Str("apple"))
	require.NoError(t, err)
	k2, err := NewKey(Str("banana"))
	require.NoError(t, err)
	assert.Negative(t, k1.Compare(k2))
	assert.True(t, bytes.Compare(k1.Encode(), k2.Encode()) < 0)
}

func TestKeyEncodeOrderPreservingDecimal(t *testing.T) {
	mustKey := func(s string) Key {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		k, err := NewKey(NewDecimal(d))
		require.NoError(t, err)
		return k
	}

	// "10" vs "9" would sort backwards under a naive string encoding.
	k9 := mustKey("9")
	k10 := mustKey("10")
	assert.Negative(t, k9.Compare(k10))
	assert.True(t, bytes.Compare(k9.Encode(), k10.Encode()) < 0)

	// Negatives must sort before positives, and more-negative before less.
	kNeg100 := mustKey("-100")
	kNeg5 := mustKey("-5")
	kZero := mustKey("0")
	kPos5 := mustKey("5")
	ordered := []Key{kNeg100, kNeg5, kZero, kPos5}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Negative(t, ordered[i].Compare(ordered[i+1]))
		assert.True(t, bytes.Compare(ordered[i].Encode(), ordered[i+1].Encode()) < 0)
	}

	// Different representations of the same value, and same-exponent
	// values differing only in trailing digits, must still encode
	// consistently with numeric order.
	kHundredA := mustKey("100")
	kHundredB, err := NewKey(NewDecimal(decimal.New(1, 2))) // 1 * 10^2
	require.NoError(t, err)
	assert.Equal(t, kHundredA.Encode(), kHundredB.Encode())

	k12 := mustKey("0.12")
	k125 := mustKey("0.125")
	assert.Negative(t, k12.Compare(k125))
	assert.True(t, bytes.Compare(k12.Encode(), k125.Encode()) < 0)
}

func TestNoKeySentinel(t *testing.T) {
	assert.False(t, NoKey.HasKey())
	assert.True(t, IsNull(NoKey.Value()))
}
