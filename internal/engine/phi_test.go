package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func TestResolvePhi_MaxVersionWins(t *testing.T) {
	v := NewVariables(8, PolicyVersioned)
	require.NoError(t, v.Assign(0, ir.IntConst(1), RootBlock))
	require.NoError(t, v.Assign(0, ir.IntConst(2), RootBlock))
	require.NoError(t, v.Assign(1, ir.IntConst(3), RootBlock))

	chosen, err := ResolvePhi(v, 5, []int{1, 0}, RootBlock)
	require.NoError(t, err)
	assert.Equal(t, 0, chosen)

	got, _ := v.Read(5)
	assert.Equal(t, int64(2), got.Int64())
}

func TestResolvePhi_TieBreaksToLaterSource(t *testing.T) {
	v := NewVariables(8, PolicyVersioned)
	require.NoError(t, v.Assign(0, ir.IntConst(10), RootBlock))
	require.NoError(t, v.Assign(1, ir.IntConst(20), RootBlock))

	chosen, err := ResolvePhi(v, 2, []int{0, 1}, RootBlock)
	require.NoError(t, err)
	assert.Equal(t, 1, chosen)

	chosen, err = ResolvePhi(v, 3, []int{1, 0}, RootBlock)
	require.NoError(t, err)
	assert.Equal(t, 0, chosen)
}

func TestResolvePhi_SkipsUnassignedSources(t *testing.T) {
	v := NewVariables(8, PolicyVersioned)
	require.NoError(t, v.Assign(4, ir.IntConst(7), RootBlock))

	chosen, err := ResolvePhi(v, 0, []int{1, 4, 6}, RootBlock)
	require.NoError(t, err)
	assert.Equal(t, 4, chosen)
}

func TestResolvePhi_NoSource(t *testing.T) {
	v := NewVariables(8, PolicyVersioned)
	_, err := ResolvePhi(v, 0, []int{1, 2}, RootBlock)
	assert.Equal(t, ErrCodeNoValidPhiSource, CodeOf(err))
}

func TestResolvePhi_TargetBumpsVersion(t *testing.T) {
	v := NewVariables(8, PolicyVersioned)
	require.NoError(t, v.Assign(0, ir.IntConst(1), RootBlock))
	require.NoError(t, v.Assign(2, ir.IntConst(9), RootBlock))

	_, err := ResolvePhi(v, 2, []int{0}, BlockID(3))
	require.NoError(t, err)

	slot, _ := v.Slot(2)
	assert.Equal(t, 2, slot.Version)
	assert.Equal(t, BlockID(3), slot.Block)
}
