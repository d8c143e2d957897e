package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/LowLevelDaniel/rpnmath/internal/store"
)

// AssertionError describes a failed assertion. Trace-based checks attach
// the scenario trace so the failure can be read in context.
type AssertionError struct {
	Type  string
	Want  string
	Got   string
	Trace []TraceEvent
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: want %s, got %s", e.Type, e.Want, e.Got)
	if len(e.Trace) > 0 {
		b.WriteString("\ntrace so far:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&b, "  %d.%-3d %-9s pos=%-3d block=%d  %s\n",
				ev.Step, ev.Seq, ev.Action, ev.Pos, ev.Block, ev.Detail)
		}
	}
	return b.String()
}

var errNoStore = errors.New("history assertion requires a store")

// AssertionContext gives history assertions access to the session store.
type AssertionContext struct {
	Store     *store.Store
	Ctx       context.Context
	SessionID string
}

// EvaluateAssertions runs every assertion against result and returns one
// message per failure, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := checkAssertion(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return failures
}

func checkAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertVariable:
		return assertVariable(result.Steps, a)
	case AssertHistory:
		if actx == nil || actx.Store == nil {
			return errNoStore
		}
		return assertHistory(actx.Ctx, actx.Store, actx.SessionID, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	found := slices.ContainsFunc(trace, func(ev TraceEvent) bool {
		return ev.Action == a.Action && (a.Detail == "" || ev.Detail == a.Detail)
	})
	if found {
		return nil
	}
	want := a.Action
	if a.Detail != "" {
		want += fmt.Sprintf(" %q", a.Detail)
	}
	return &AssertionError{Type: AssertTraceContains, Want: want, Got: "no such step", Trace: trace}
}

// assertTraceOrder compares first occurrences only; other steps may come
// in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	first := func(action string) int {
		return slices.IndexFunc(trace, func(ev TraceEvent) bool { return ev.Action == action })
	}

	prevIdx := -1
	for i, action := range a.Actions {
		idx := first(action)
		if idx < 0 {
			return &AssertionError{
				Type:  AssertTraceOrder,
				Want:  fmt.Sprintf("%v", a.Actions),
				Got:   "missing action: " + action,
				Trace: trace,
			}
		}
		if i > 0 && idx <= prevIdx {
			return &AssertionError{
				Type: AssertTraceOrder,
				Want: fmt.Sprintf("%v", a.Actions),
				Got: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					a.Actions[i-1], prevIdx+1, action, idx+1),
				Trace: trace,
			}
		}
		prevIdx = idx
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Action == a.Action {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:  AssertTraceCount,
		Want:  fmt.Sprintf("%d x %s", a.Count, a.Action),
		Got:   fmt.Sprintf("%d", n),
		Trace: trace,
	}
}

// assertVariable reads the slot table left by a step; Step 0 is the last.
func assertVariable(steps []StepResult, a Assertion) error {
	n := a.Step
	if n == 0 {
		n = len(steps)
	}
	if n < 1 || n > len(steps) {
		return fmt.Errorf("variable assertion: step %d did not run", n)
	}

	v := *a.Var
	slot, ok := steps[n-1].Variables[v]
	fail := func(want, got string) error {
		return &AssertionError{Type: AssertVariable, Want: fmt.Sprintf("$%d %s after step %d", v, want, n), Got: got}
	}
	switch {
	case !ok:
		return fail("assigned", "unassigned")
	case a.Value != nil && slot.Value.Int64() != *a.Value:
		return fail(fmt.Sprintf("= %d", *a.Value), slot.Value.String())
	case a.Version != nil && slot.Version != *a.Version:
		return fail(fmt.Sprintf("at version %d", *a.Version), fmt.Sprintf("version %d", slot.Version))
	}
	return nil
}

func assertHistory(ctx context.Context, st *store.Store, sessionID string, a Assertion) error {
	evals, err := st.ReadEvaluations(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("history assertion: %w", err)
	}

	i := slices.IndexFunc(evals, func(ev store.Evaluation) bool { return ev.Seq == a.Seq })
	if i < 0 {
		return &AssertionError{
			Type: AssertHistory,
			Want: fmt.Sprintf("evaluation at seq %d", a.Seq),
			Got:  fmt.Sprintf("%d evaluations recorded", len(evals)),
		}
	}

	ev := evals[i]
	if a.Error != "" && ev.ErrorCode != a.Error {
		return &AssertionError{Type: AssertHistory, Want: fmt.Sprintf("seq %d failed with %s", a.Seq, a.Error), Got: describeEvaluation(ev)}
	}
	if a.Value != nil && (!ev.HasResult || ev.Value != *a.Value) {
		return &AssertionError{Type: AssertHistory, Want: fmt.Sprintf("seq %d returned %d", a.Seq, *a.Value), Got: describeEvaluation(ev)}
	}
	return nil
}

func describeEvaluation(ev store.Evaluation) string {
	if ev.HasResult {
		return fmt.Sprintf("%q returned %d", ev.Program, ev.Value)
	}
	return fmt.Sprintf("%q failed with %s", ev.Program, ev.ErrorCode)
}
