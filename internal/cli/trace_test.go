package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/engine"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTrace_Golden(t *testing.T) {
	tests := []struct {
		name    string
		program string
	}{
		{"trace_addition", "3 4 +"},
		{"trace_if_else", "5 3 > if 100 ret/1 else 200 ret/1 end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, "", "trace", tt.program)
			require.NoError(t, err)
			newGoldie(t).Assert(t, tt.name, []byte(out))
		})
	}
}

func TestTrace_JSON(t *testing.T) {
	out, err := executeCommand(t, "", "--format", "json", "trace", "200 300 *")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "60000:i32", result.Outcome)

	var actions []string
	for _, s := range result.Steps {
		actions = append(actions, s.Action)
	}
	assert.Equal(t, []string{engine.ActionPromote, engine.ActionReduce, engine.ActionReturn}, actions)
	assert.Equal(t, "i16 -> i32", result.Steps[0].Detail)
}

func TestTrace_RuntimeError(t *testing.T) {
	out, err := executeCommand(t, "", "trace", "5 0 /")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "error: DIVISION_BY_ZERO")
	assert.NotContains(t, out, "result:")
}

func TestTrace_RuntimeErrorJSON(t *testing.T) {
	out, err := executeCommand(t, "", "--format", "json", "trace", "5 0 /")
	require.Error(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DIVISION_BY_ZERO", resp.Error.Code)
	assert.Equal(t, "error:DIVISION_BY_ZERO", result.Outcome)
}

func TestTrace_CompileError(t *testing.T) {
	out, err := executeCommand(t, "", "trace", "1 2 @")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E002]")
}
