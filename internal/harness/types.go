package harness

import "github.com/LowLevelDaniel/rpnmath/internal/engine"

// TraceEvent is one executor step, tagged with the scenario step it came
// from (1-based).
type TraceEvent struct {
	Step   int    `json:"step"`
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Pos    int    `json:"pos"`
	Detail string `json:"detail"`
	Block  int    `json:"block"`
}

// StepResult is the outcome of evaluating one scenario program.
type StepResult struct {
	Program   string `json:"program"`
	HasValue  bool   `json:"has_value"`
	Value     int64  `json:"value"`
	Bits      int    `json:"bits"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
	Steps     int    `json:"steps"`

	// Variables holds every assigned slot after the program finished.
	Variables map[int]engine.Slot `json:"-"`
}

// Outcome renders the step result as "7:i8" or "error:CODE".
func (s StepResult) Outcome() string {
	if !s.HasValue {
		return "error:" + s.ErrorCode
	}
	return engine.Describe(s.Value, s.Bits)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps has one entry per scenario program, in order.
	Steps []StepResult `json:"steps"`

	// Trace is the executor trace of all programs in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// SessionID is the session the evaluations were recorded under.
	SessionID string `json:"session_id"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends the executor steps of scenario step n.
func (r *Result) AddTrace(n int, steps []engine.Step) {
	for _, s := range steps {
		r.Trace = append(r.Trace, TraceEvent{
			Step:   n,
			Seq:    s.Seq,
			Action: s.Action,
			Pos:    s.Pos,
			Detail: s.Detail,
			Block:  int(s.Block),
		})
	}
}
