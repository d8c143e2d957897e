package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func TestCompile_JSONLayout(t *testing.T) {
	out, err := executeCommand(t, "", "--format", "json", "compile", "3 4 +")
	require.NoError(t, err)

	var result CompileResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)

	assert.Equal(t, []RecordView{
		{Pos: 0, Offset: 0, Size: 25, Kind: "constant", Text: "3"},
		{Pos: 1, Offset: 25, Size: 25, Kind: "constant", Text: "4"},
		{Pos: 2, Offset: 50, Size: 16, Kind: "operator", Text: "+"},
	}, result.Records)
	assert.Equal(t, 66, result.Size)
	assert.Equal(t, 256, result.Capacity)
	assert.Equal(t, ir.MustProgramHash(compiler.MustCompile("3 4 +")), result.Hash)
}

func TestCompile_HashIgnoresSpacing(t *testing.T) {
	var a, b CompileResult

	out, err := executeCommand(t, "", "--format", "json", "compile", "3 4 +")
	require.NoError(t, err)
	decodeResponse(t, out, &a)

	out, err = executeCommand(t, "", "--format", "json", "compile", "  3\n\t4   + ")
	require.NoError(t, err)
	decodeResponse(t, out, &b)

	assert.Equal(t, a.Hash, b.Hash)
}

func TestCompile_Text(t *testing.T) {
	out, err := executeCommand(t, "", "compile", "7 $0 = $0 ret/1")
	require.NoError(t, err)

	assert.Contains(t, out, "POS")
	assert.Contains(t, out, "localref")
	assert.Contains(t, out, "variadic")
	assert.Contains(t, out, "5 records")
	assert.Contains(t, out, "hash: ")
}

func TestCompile_Error(t *testing.T) {
	out, err := executeCommand(t, "", "compile", "3 4 ++")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestLayout_Empty(t *testing.T) {
	result, err := layout(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, result.Size)
}
