package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// TraceSnapshot captures the outcomes and executor trace of a scenario.
// It is serialized with ir.MarshalCanonical for byte-stable comparison.
type TraceSnapshot struct {
	ScenarioName string
	SessionID    string
	Steps        []StepResult
	Trace        []TraceEvent
}

// NewTraceSnapshot builds a snapshot from a scenario result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		SessionID:    result.SessionID,
		Steps:        result.Steps,
		Trace:        result.Trace,
	}
}

// toCanonicalMap converts the snapshot to values ir.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = map[string]any{
			"program": st.Program,
			"outcome": st.Outcome(),
			"steps":   st.Steps,
		}
	}

	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = map[string]any{
			"step":   ev.Step,
			"seq":    ev.Seq,
			"action": ev.Action,
			"pos":    ev.Pos,
			"detail": ev.Detail,
			"block":  ev.Block,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session_id":    s.SessionID,
		"steps":         steps,
		"trace":         trace,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
