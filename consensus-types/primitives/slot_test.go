package primitives

import (
	"math"
	"testing"

	"github.com/sky-coderay/lighthouse/testing/assert"
	"github.com/sky-coderay/lighthouse/testing/require"
)

func TestSlot_SafeAdd(t *testing.T) {
	got, err := Slot(10).SafeAdd(5)
	require.NoError(t, err)
	assert.Equal(t, Slot(15), got)

	_, err = Slot(math.MaxUint64).SafeAdd(1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestSlot_SaturatingAdd(t *testing.T) {
	assert.Equal(t, Slot(15), Slot(10).SaturatingAdd(5))
	assert.Equal(t, Slot(math.MaxUint64), Slot(math.MaxUint64-1).SaturatingAdd(5))
}

func TestSlot_SubClampsAtZero(t *testing.T) {
	assert.Equal(t, Slot(5), Slot(10).Sub(5))
	assert.Equal(t, Slot(0), Slot(3).Sub(10))
}

func TestSaturatingMul(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want uint64
	}{
		{name: "zero operand", a: 0, b: math.MaxUint64, want: 0},
		{name: "in range", a: 128, b: 6, want: 768},
		{name: "wrapping product saturates", a: 3074457345618258603, b: 6, want: math.MaxUint64},
		{name: "max times two", a: math.MaxUint64, b: 2, want: math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SaturatingMul(tt.a, tt.b))
		})
	}
}
