package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	File      string
	Vars      bool
	DBPath    string
	SessionID string

	// Sessions names new history sessions. Defaults to UUIDv7.
	Sessions engine.SessionIDGenerator
}

// EvalResult is the JSON payload of a successful evaluation.
type EvalResult struct {
	Value     int64      `json:"value"`
	Bits      int        `json:"bits"`
	Text      string     `json:"text"`
	Steps     int        `json:"steps"`
	Variables []slotView `json:"variables,omitempty"`
	Seq       int64      `json:"seq,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{Sessions: engine.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "eval [program...]",
		Short: "Evaluate a postfix program",
		Long: `Evaluate one postfix program and print its result with its width.

The program is taken from --file, the arguments (joined with spaces), or
stdin. With --db the evaluation is appended to the history database.

Examples:
  rpnmath eval 3 4 +
  rpnmath eval --vars '5 $0 = $0 $0 *'
  echo '200 100 +' | rpnmath eval --db history.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the program from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.Vars, "vars", false, "print assigned variables after evaluation")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the evaluation in this history database (defaults to config history)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "append to an existing history session")

	return cmd
}

func runEval(cmd *cobra.Command, rootOpts *RootOptions, opts *EvalOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	src, err := readProgram(cmd, args, opts.File)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	ev, err := evaluate(src, cfg, rootOpts.Logger(), nil)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), compileErrorDetails(err))
		}
		return WrapExitError(ExitCommandError, "invalid engine configuration", err)
	}
	formatter.VerboseLog("Evaluated %d records in %d steps", len(ev.Items), ev.Steps)

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.History
	}
	var seq int64
	if dbPath != "" {
		ctx := context.Background()
		h, err := openHistory(ctx, dbPath, opts.SessionID, cfg, opts.Sessions)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer h.Close()

		stored, err := h.Record(ctx, ev)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		seq = stored.Seq
		formatter.SessionID = h.SessionID()
		formatter.VerboseLog("Recorded evaluation %s (session %s, seq %d)", stored.ID, h.SessionID(), seq)
	}

	if ev.Err != nil {
		return formatter.fail(ExitFailure, ev.Code(), ev.Err.Error(), runtimeErrorDetails(ev.Err))
	}

	result := EvalResult{
		Value: ev.Value.Int64(),
		Bits:  ev.Value.Type.Bits,
		Text:  engine.Describe(ev.Value.Int64(), ev.Value.Type.Bits),
		Steps: ev.Steps,
		Seq:   seq,
	}
	if opts.Vars {
		result.Variables = slotViews(ev.Vars)
	}

	return formatter.Emit(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Text)
		writeSlots(w, result.Variables)
	})
}
