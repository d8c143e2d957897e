package engine

import (
	"strconv"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Step actions reported to a Tracer.
const (
	ActionReduce    = "reduce"
	ActionAssign    = "assign"
	ActionCondition = "condition"
	ActionEnter     = "enter"
	ActionExit      = "exit"
	ActionSkip      = "skip"
	ActionRewind    = "rewind"
	ActionPhi       = "phi"
	ActionReturn    = "return"
	ActionPromote   = "promote"
)

// Step is one observable executor event.
type Step struct {
	Seq    int
	Action string
	Pos    int
	Detail string
	Block  BlockID
}

// Tracer observes executor steps. Implementations must not retain the
// executor's buffer.
type Tracer interface {
	OnStep(Step)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(Step)

// OnStep implements Tracer.
func (f TracerFunc) OnStep(s Step) { f(s) }

// TraceLog collects steps in order.
type TraceLog struct {
	Steps []Step
}

// OnStep implements Tracer.
func (l *TraceLog) OnStep(s Step) { l.Steps = append(l.Steps, s) }

// Canonical returns the steps as canonical-JSON-ready values.
func (l *TraceLog) Canonical() []any {
	out := make([]any, len(l.Steps))
	for i, s := range l.Steps {
		out[i] = map[string]any{
			"seq":    s.Seq,
			"action": s.Action,
			"pos":    s.Pos,
			"detail": s.Detail,
			"block":  int(s.Block),
		}
	}
	return out
}

// MarshalCanonical renders the log as canonical JSON.
func (l *TraceLog) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(l.Canonical())
}

func describe(v ir.Constant) string {
	return Describe(v.Int64(), v.Type.Bits)
}

// Describe renders a value with its width, e.g. "7:i8".
func Describe(v int64, bits int) string {
	return strconv.FormatInt(v, 10) + ":" + ir.Int(bits).String()
}

func itoa(n int) string { return strconv.Itoa(n) }
