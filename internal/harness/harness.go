package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/config"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
	"github.com/LowLevelDaniel/rpnmath/internal/store"
	"github.com/LowLevelDaniel/rpnmath/internal/testutil"
)

// ErrCodeCompile is the step error code for programs that fail to compile.
// Compile failures are not recorded in the history store.
const ErrCodeCompile = "COMPILE_ERROR"

// Harness runs scenario steps against one session.
type Harness struct {
	store    *store.Store
	recorder *store.Recorder
	cfg      config.Config
	opts     []engine.Option
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and session id. An error is returned only when the scenario could
// not be run at all; expectation and assertion failures are in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine debug logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	cfg := scenario.Config.Apply(config.Default())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	sessions := testutil.NewFixedSessionGenerator(scenario.Session)
	rec, err := store.NewRecorder(ctx, st,
		store.Session{ID: sessions.Generate(), Policy: cfg.Policy},
		testutil.NewDeterministicClock(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	h := &Harness{
		store:    st,
		recorder: rec,
		cfg:      cfg,
		opts:     append(opts, engine.WithLogger(logger)),
		logger:   logger,
	}

	result := NewResult()
	result.SessionID = rec.SessionID()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx, SessionID: rec.SessionID()}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep compiles and evaluates one program, records it and checks
// its expect clause.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	sr := StepResult{Program: step.Program}

	items, err := compiler.Compile(step.Program, h.cfg.MaxVariables)
	if err != nil {
		sr.ErrorCode, sr.Error = ErrCodeCompile, err.Error()
		result.Steps = append(result.Steps, sr)
		checkExpect(n, step.Expect, sr, result)
		return nil
	}

	log := &engine.TraceLog{}
	ex := engine.New(buffer.FromItems(items), append(h.opts[:len(h.opts):len(h.opts)], engine.WithTracer(log))...)
	v, runErr := ex.Execute()

	sr.Steps = ex.Steps()
	sr.Variables = snapshotVariables(ex.Variables())
	if runErr != nil {
		sr.ErrorCode, sr.Error = string(engine.CodeOf(runErr)), runErr.Error()
		if sr.ErrorCode == "" {
			return runErr
		}
	} else {
		sr.HasValue, sr.Value, sr.Bits = true, v.Int64(), v.Type.Bits
	}

	if _, err := h.recorder.Record(ctx, items, store.Outcome{
		Value: v,
		Err:   runErr,
		Code:  sr.ErrorCode,
		Steps: sr.Steps,
	}); err != nil {
		return err
	}

	result.Steps = append(result.Steps, sr)
	result.AddTrace(n, log.Steps)
	checkExpect(n, step.Expect, sr, result)

	h.logger.Info("scenario step completed",
		"step", n,
		"program", step.Program,
		"outcome", sr.Outcome(),
		"steps", sr.Steps,
	)
	return nil
}

func checkExpect(n int, want *Expect, got StepResult, result *Result) {
	if want == nil {
		return
	}
	switch {
	case want.Error != "":
		if got.ErrorCode != want.Error {
			result.AddError(fmt.Sprintf("step %d: expected error %s, got %s", n, want.Error, got.Outcome()))
		}
	case !got.HasValue:
		result.AddError(fmt.Sprintf("step %d: expected value %d, got %s: %s", n, *want.Value, got.Outcome(), got.Error))
	case got.Value != *want.Value:
		result.AddError(fmt.Sprintf("step %d: expected value %d, got %s", n, *want.Value, got.Outcome()))
	case want.Bits != 0 && got.Bits != want.Bits:
		result.AddError(fmt.Sprintf("step %d: expected width %s, got %s", n, ir.Int(want.Bits), got.Outcome()))
	}
}

func snapshotVariables(vars *engine.Variables) map[int]engine.Slot {
	out := make(map[int]engine.Slot)
	for _, id := range vars.Assigned() {
		if s, ok := vars.Slot(id); ok {
			out[id] = s
		}
	}
	return out
}
