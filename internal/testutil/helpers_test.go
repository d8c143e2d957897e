package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func TestFixedSessionGenerator(t *testing.T) {
	var gen engine.SessionIDGenerator = NewFixedSessionGenerator("s-1")
	assert.Equal(t, "s-1", gen.Generate())
	assert.Equal(t, "s-1", gen.Generate())

	assert.Equal(t, "test-session", NewFixedSessionGenerator("").Generate())
}

func TestMustBuffer(t *testing.T) {
	buf := MustBuffer(t, "3 4 + .")
	assert.Equal(t, 4, buf.Len())
}

func TestMustEval(t *testing.T) {
	assert.Equal(t, int64(7), MustEval(t, "3 4 + ."))
	assert.Equal(t, int64(2), MustEval(t, "5 3 - ."))
}

func TestEvalErr(t *testing.T) {
	assert.Equal(t, engine.ErrCodeDivisionByZero, EvalErr(t, "5 0 / ."))
	assert.Equal(t, engine.ErrorCode(""), EvalErr(t, "1 ."))
}

func TestInts(t *testing.T) {
	assert.Equal(t, []int64{1, -2}, Ints(ir.IntConst(1), ir.IntConst(-2)))
}
