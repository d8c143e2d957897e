package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func TestBlocks_EnterExit(t *testing.T) {
	b := NewBlocks(8, 4)
	assert.Equal(t, RootBlock, b.Current())

	id, err := b.Create(RootBlock, false)
	require.NoError(t, err)
	assert.Equal(t, CondUnknown, b.Get(id).Condition)

	require.NoError(t, b.Enter(id))
	assert.Equal(t, id, b.Current())
	assert.Equal(t, 1, b.Depth())

	exited, err := b.Exit(7)
	require.NoError(t, err)
	assert.Equal(t, id, exited)
	assert.Equal(t, 7, b.Get(id).End)
	assert.Equal(t, RootBlock, b.Current())
}

func TestBlocks_ExitRootUnderflows(t *testing.T) {
	_, err := NewBlocks(8, 4).Exit(0)
	assert.Equal(t, ErrCodeBlockStackUnderflow, CodeOf(err))
}

func TestBlocks_Limits(t *testing.T) {
	b := NewBlocks(3, 1)
	a, err := b.Create(RootBlock, false)
	require.NoError(t, err)
	c, err := b.Create(a, true)
	require.NoError(t, err)

	_, err = b.Create(c, false)
	assert.Equal(t, ErrCodeBlockLimitExceeded, CodeOf(err))

	require.NoError(t, b.Enter(a))
	assert.Equal(t, ErrCodeBlockStackOverflow, CodeOf(b.Enter(c)))
}

func TestBlocks_Truncate(t *testing.T) {
	b := NewBlocks(8, 4)
	loop, _ := b.Create(RootBlock, true)
	_, _ = b.Create(loop, false)
	_, _ = b.Create(loop, false)

	b.Truncate(int(loop) + 1)
	assert.Equal(t, 2, b.Len())
	assert.Nil(t, b.Get(loop+1))
}

func TestBlocks_EvaluateConditionConsumesOperand(t *testing.T) {
	buf := buffer.FromItems([]ir.Item{ir.IntConst(9), ir.LocalRef{ID: 0}, ir.ControlFlowOperator{Op: ir.CfIf}})
	vars := NewVariables(4, PolicyVersioned)
	require.NoError(t, vars.Assign(0, ir.IntConst(0), RootBlock))

	b := NewBlocks(8, 4)
	cond, err := b.EvaluateCondition(buf, 0, 2, vars)
	require.NoError(t, err)
	assert.False(t, cond, "nearest operand is $0 = 0")
	assert.Equal(t, "9 if", buf.String())

	cond, err = b.EvaluateCondition(buf, 0, 1, vars)
	require.NoError(t, err)
	assert.True(t, cond)

	_, err = b.EvaluateCondition(buf, 0, 0, vars)
	assert.Equal(t, ErrCodeOperandMissing, CodeOf(err))
}
