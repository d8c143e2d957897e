package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/config"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
	"github.com/LowLevelDaniel/rpnmath/internal/store"
)

var errNoProgram = errors.New("no program given")

// readProgram returns the program source from --file, the arguments, or
// stdin, in that order. A file of "-" reads stdin.
func readProgram(cmd *cobra.Command, args []string, file string) (string, error) {
	var src string
	switch {
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		src = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read program: %w", err)
		}
		src = string(data)
	case len(args) > 0:
		src = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		src = string(data)
	}
	if strings.TrimSpace(src) == "" {
		return "", errNoProgram
	}
	return src, nil
}

// evaluation is the outcome of running one program.
type evaluation struct {
	Items []ir.Item
	Value ir.Constant
	Err   error // runtime error, nil on success
	Steps int
	Vars  *engine.Variables
}

// Code returns the engine error code, or "" on success.
func (ev *evaluation) Code() string {
	return string(engine.CodeOf(ev.Err))
}

// outcome converts the evaluation for the history store.
func (ev *evaluation) outcome() store.Outcome {
	return store.Outcome{Value: ev.Value, Err: ev.Err, Code: ev.Code(), Steps: ev.Steps}
}

// evaluate compiles and executes src under cfg. The returned error is a
// compile or config error; runtime failures are reported in ev.Err.
func evaluate(src string, cfg config.Config, logger *slog.Logger, tracer engine.Tracer) (*evaluation, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	items, err := compiler.Compile(src, cfg.MaxVariables)
	if err != nil {
		return nil, err
	}

	opts = append(opts, engine.WithLogger(logger))
	if tracer != nil {
		opts = append(opts, engine.WithTracer(tracer))
	}
	ex := engine.New(buffer.FromItems(items), opts...)
	v, runErr := ex.Execute()
	return &evaluation{
		Items: items,
		Value: v,
		Err:   runErr,
		Steps: ex.Steps(),
		Vars:  ex.Variables(),
	}, nil
}

// history is an open store with a recorder for one session.
type history struct {
	store    *store.Store
	recorder *store.Recorder
}

// openHistory opens dbPath and starts (or resumes) a session. An empty
// sessionID starts a new session named by gen.
func openHistory(ctx context.Context, dbPath, sessionID string, cfg config.Config, gen engine.SessionIDGenerator) (*history, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = gen.Generate()
	}
	last, err := st.GetLastSeq(ctx, sessionID)
	if err != nil {
		st.Close()
		return nil, err
	}
	rec, err := store.NewRecorder(ctx, st,
		store.Session{ID: sessionID, Policy: cfg.Policy, StartedSeq: last},
		engine.NewClockAt(last),
	)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &history{store: st, recorder: rec}, nil
}

// Record stores ev in the session.
func (h *history) Record(ctx context.Context, ev *evaluation) (store.Evaluation, error) {
	return h.recorder.Record(ctx, ev.Items, ev.outcome())
}

// SessionID returns the recorded session.
func (h *history) SessionID() string { return h.recorder.SessionID() }

// Close closes the underlying store.
func (h *history) Close() error { return h.store.Close() }

// compileErrorDetails exposes a compile error's location for JSON output.
func compileErrorDetails(err error) any {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return nil
	}
	return map[string]any{"token": ce.Token, "index": ce.Index, "offset": ce.Offset}
}

// runtimeErrorDetails exposes a runtime error's position for JSON output.
func runtimeErrorDetails(err error) any {
	var re *engine.RuntimeError
	if !errors.As(err, &re) {
		return nil
	}
	details := map[string]any{"pos": re.Pos}
	if re.VarID >= 0 {
		details["var"] = re.VarID
	}
	for k, v := range re.Details {
		details[k] = v
	}
	return details
}

// slotView is a variable slot as printed by --vars.
type slotView struct {
	ID      int    `json:"id"`
	Value   int64  `json:"value"`
	Bits    int    `json:"bits"`
	Version int    `json:"version"`
	Block   int    `json:"block"`
	Text    string `json:"-"`
}

func slotViews(vars *engine.Variables) []slotView {
	ids := vars.Assigned()
	out := make([]slotView, 0, len(ids))
	for _, id := range ids {
		s, ok := vars.Slot(id)
		if !ok {
			continue
		}
		out = append(out, slotView{
			ID:      id,
			Value:   s.Value.Int64(),
			Bits:    s.Value.Type.Bits,
			Version: s.Version,
			Block:   int(s.Block),
			Text:    engine.Describe(s.Value.Int64(), s.Value.Type.Bits),
		})
	}
	return out
}

func writeSlots(w io.Writer, slots []slotView) {
	for _, s := range slots {
		fmt.Fprintf(w, "$%d = %s (v%d, block %d)\n", s.ID, s.Text, s.Version, s.Block)
	}
}
