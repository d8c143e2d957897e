package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }

func TestRun_PassingScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "addition",
		Description: "adds two constants",
		Steps: []Step{
			{Program: "3 4 +", Expect: &Expect{Value: int64p(7), Bits: 8}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "test-session", result.SessionID)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "7:i8", result.Steps[0].Outcome())
	assert.Equal(t, 2, result.Steps[0].Steps)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expects the wrong value",
		Steps: []Step{
			{Program: "3 4 +", Expect: &Expect{Value: int64p(8)}},
			{Program: "3 4 +", Expect: &Expect{Error: "DIVISION_BY_ZERO"}},
			{Program: "100 100 +", Expect: &Expect{Value: int64p(200), Bits: 8}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected value 8, got 7:i8")
	assert.Contains(t, result.Errors[1], "expected error DIVISION_BY_ZERO")
	assert.Contains(t, result.Errors[2], "expected width i8, got 200:i16")
}

func TestRun_CompileErrorIsAStepOutcome(t *testing.T) {
	scenario := &Scenario{
		Name:        "compile",
		Description: "unknown token",
		Steps: []Step{
			{Program: "3 4 frob", Expect: &Expect{Error: ErrCodeCompile}},
			{Program: "1 .", Expect: &Expect{Value: int64p(1)}},
		},
		Assertions: []Assertion{
			{Type: AssertHistory, Seq: 1, Value: int64p(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "error:COMPILE_ERROR", result.Steps[0].Outcome())
}

func TestRun_ConfigOverrides(t *testing.T) {
	policy := "pure"
	scenario := &Scenario{
		Name:        "pure",
		Description: "pure policy rejects reassignment",
		Config:      configOverrides(&policy),
		Steps: []Step{
			{Program: "1 $0 = 2 $0 = $0 ret/1", Expect: &Expect{Error: "SSA_VIOLATION"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InvalidConfig(t *testing.T) {
	policy := "loose"
	scenario := &Scenario{
		Name:        "bad",
		Description: "bad policy",
		Config:      configOverrides(&policy),
		Steps:       []Step{{Program: "1"}},
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/control_flow.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a := NewTraceSnapshot(scenario.Name, first)
	b := NewTraceSnapshot(scenario.Name, second)
	ja, err := a.MarshalCanonical()
	require.NoError(t, err)
	jb, err := b.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestScenarioFiles(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(path, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.NotEmpty(t, result.Trace)
		})
	}
}

func TestRunWithGolden_Addition(t *testing.T) {
	scenario := &Scenario{
		Name:        "addition",
		Description: "adds two constants",
		Steps:       []Step{{Program: "3 4 +"}},
	}
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestRunWithGolden_IfElse(t *testing.T) {
	scenario := &Scenario{
		Name:        "if_else",
		Description: "taken branch returns, then a failing program",
		Session:     "golden-session",
		Steps: []Step{
			{Program: "5 3 > if 100 ret/1 else 200 ret/1 end"},
			{Program: "5 0 /"},
		},
	}
	require.NoError(t, RunWithGolden(t, scenario))
}
