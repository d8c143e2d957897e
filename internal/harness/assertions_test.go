package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 1, Seq: 1, Action: engine.ActionAssign, Detail: "$0 = 0:i8"},
		{Step: 1, Seq: 2, Action: engine.ActionEnter, Detail: "while 1", Block: 1},
		{Step: 1, Seq: 3, Action: engine.ActionRewind, Detail: "loop 1", Block: 1},
		{Step: 1, Seq: 4, Action: engine.ActionRewind, Detail: "loop 1", Block: 1},
		{Step: 1, Seq: 5, Action: engine.ActionExit, Detail: "loop 1"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: engine.ActionEnter}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: engine.ActionAssign, Detail: "$0 = 0:i8"}))

	err := assertTraceContains(trace, Assertion{Action: engine.ActionAssign, Detail: "$0 = 1:i8"})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "trace so far:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"assign", "enter", "exit"}}))

	err := assertTraceOrder(trace, Assertion{Actions: []string{"exit", "enter"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertTraceOrder(trace, Assertion{Actions: []string{"assign", "phi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing action: phi")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "rewind", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "phi", Count: 0}))
	assert.Error(t, assertTraceCount(trace, Assertion{Action: "rewind", Count: 3}))
}

func TestAssertVariable(t *testing.T) {
	steps := []StepResult{
		{Variables: map[int]engine.Slot{0: {Value: ir.IntConst(1), Assigned: true, Version: 1}}},
		{Variables: map[int]engine.Slot{0: {Value: ir.IntConst(3), Assigned: true, Version: 4}}},
	}

	assert.NoError(t, assertVariable(steps, Assertion{Var: intp(0), Value: int64p(3), Version: intp(4)}))
	assert.NoError(t, assertVariable(steps, Assertion{Step: 1, Var: intp(0), Value: int64p(1)}))
	assert.Error(t, assertVariable(steps, Assertion{Var: intp(0), Value: int64p(1)}))
	assert.Error(t, assertVariable(steps, Assertion{Var: intp(0), Version: intp(1)}))
	assert.Error(t, assertVariable(steps, Assertion{Var: intp(5), Value: int64p(0)}))
	assert.Error(t, assertVariable(nil, Assertion{Var: intp(0), Value: int64p(0)}))
}

func TestEvaluateAssertions_HistoryNeedsStore(t *testing.T) {
	msgs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertHistory, Seq: 1, Value: int64p(1)}}, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "requires a store")
}

func TestRun_HistoryAssertionFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "history",
		Description: "history assertions read the store",
		Steps:       []Step{{Program: "3 4 +"}, {Program: "5 0 /"}},
		Assertions: []Assertion{
			{Type: AssertHistory, Seq: 1, Value: int64p(8)},
			{Type: AssertHistory, Seq: 2, Error: "OVERFLOW_BEYOND_MAX_WIDTH"},
			{Type: AssertHistory, Seq: 3, Value: int64p(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `"3 4 +" returned 7`)
	assert.Contains(t, result.Errors[1], `"5 0 /" failed with DIVISION_BY_ZERO`)
	assert.Contains(t, result.Errors[2], "2 evaluations recorded")
}
