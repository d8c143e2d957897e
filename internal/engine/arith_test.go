package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func TestArithmetic_WidthFollowsWiderOperand(t *testing.T) {
	got, promoted, err := Arithmetic(ir.OpAdd, ir.MustInt(1, 8), ir.MustInt(1, 32))
	require.NoError(t, err)
	assert.Equal(t, 32, got.Type.Bits)
	assert.False(t, promoted)
}

func TestArithmetic_PromotesByDoubling(t *testing.T) {
	tests := []struct {
		name string
		op   ir.OpKind
		a, b ir.Constant
		want int64
		bits int
	}{
		{"i8 add", ir.OpAdd, ir.MustInt(127, 8), ir.MustInt(1, 8), 128, 16},
		{"i8 mul", ir.OpMul, ir.MustInt(100, 8), ir.MustInt(-100, 8), -10000, 16},
		{"i16 mul", ir.OpMul, ir.MustInt(300, 16), ir.MustInt(300, 16), 90000, 32},
		{"i32 to i64", ir.OpMul, ir.MustInt(math.MaxInt32, 32), ir.MustInt(2, 8), 2 * math.MaxInt32, 64},
		{"odd width caps at 64", ir.OpMul, ir.MustInt(1<<40, 46), ir.MustInt(1<<20, 23), 1 << 60, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, promoted, err := Arithmetic(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.True(t, promoted)
			assert.Equal(t, tt.want, got.Int64())
			assert.Equal(t, tt.bits, got.Type.Bits)
		})
	}
}

func TestArithmetic_Overflow(t *testing.T) {
	max64 := ir.MustInt(math.MaxInt64, 64)
	min64 := ir.MustInt(math.MinInt64, 64)
	one := ir.MustInt(1, 8)
	minusOne := ir.MustInt(-1, 8)

	cases := []struct {
		name string
		op   ir.OpKind
		a, b ir.Constant
	}{
		{"add", ir.OpAdd, max64, one},
		{"sub", ir.OpSub, min64, one},
		{"mul", ir.OpMul, max64, ir.MustInt(2, 8)},
		{"mul min by -1", ir.OpMul, minusOne, min64},
		{"div min by -1", ir.OpDiv, min64, minusOne},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Arithmetic(tt.op, tt.a, tt.b)
			assert.True(t, IsOverflow(err), "got %v", err)
		})
	}
}

func TestArithmetic_DivisionTruncatesTowardZero(t *testing.T) {
	got, _, err := Arithmetic(ir.OpDiv, ir.MustInt(-7, 8), ir.MustInt(2, 8))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), got.Int64())

	_, _, err = Arithmetic(ir.OpDiv, ir.MustInt(1, 8), ir.MustInt(0, 8))
	assert.True(t, IsDivisionByZero(err))
}

func TestCompare_ProducesBool(t *testing.T) {
	got, err := Compare(ir.OpLt, ir.MustInt(-1, 64), ir.MustInt(1, 8))
	require.NoError(t, err)
	assert.Equal(t, ir.BoolWidth, got.Type.Bits)
	assert.Equal(t, int64(1), got.Int64())

	_, err = Compare(ir.OpAdd, one(), one())
	assert.Equal(t, ErrCodeUnknownOperator, CodeOf(err))
}

func one() ir.Constant { return ir.MustInt(1, 8) }
