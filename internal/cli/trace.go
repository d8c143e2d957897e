package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/engine"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	File string
}

// TraceStep is one executor step as printed by trace.
type TraceStep struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Pos    int    `json:"pos"`
	Block  int    `json:"block"`
	Detail string `json:"detail"`
}

// TraceResult is the trace of one evaluation.
type TraceResult struct {
	Steps   []TraceStep `json:"steps"`
	Outcome string      `json:"outcome"` // "7:i8" or "error:CODE"
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace [program...]",
		Short: "Evaluate a program and print every executor step",
		Long: `Evaluate a program and print each step the executor takes:
reductions, assignments, condition checks, block entry and exit,
skipped branches, loop rewinds, phi merges, width promotions and the
final return.

Examples:
  rpnmath trace 3 4 +
  rpnmath trace '0 $0 = $0 3 < while $0 1 + $0 = end $0 ret/1'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the program from a file (- for stdin)")

	return cmd
}

func runTrace(cmd *cobra.Command, rootOpts *RootOptions, opts *TraceOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	src, err := readProgram(cmd, args, opts.File)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	log := &engine.TraceLog{}
	ev, err := evaluate(src, cfg, rootOpts.Logger(), log)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), compileErrorDetails(err))
	}

	result := TraceResult{Steps: make([]TraceStep, len(log.Steps))}
	for i, s := range log.Steps {
		result.Steps[i] = TraceStep{
			Seq:    s.Seq,
			Action: s.Action,
			Pos:    s.Pos,
			Block:  int(s.Block),
			Detail: s.Detail,
		}
	}
	if ev.Err != nil {
		result.Outcome = "error:" + ev.Code()
	} else {
		result.Outcome = engine.Describe(ev.Value.Int64(), ev.Value.Type.Bits)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if ev.Err != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ev.Code(), Message: ev.Err.Error(), Details: runtimeErrorDetails(ev.Err)}
		}
		if err := json.NewEncoder(formatter.Writer).Encode(resp); err != nil {
			return err
		}
	} else {
		writeTrace(formatter.Writer, result.Steps)
		if ev.Err != nil {
			fmt.Fprintf(formatter.Writer, "error: %s\n", ev.Err)
		} else {
			fmt.Fprintf(formatter.Writer, "result: %s\n", result.Outcome)
		}
	}

	if ev.Err != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ev.Code(), ev.Err))
	}
	return nil
}

func writeTrace(w io.Writer, steps []TraceStep) {
	fmt.Fprintf(w, "%-5s %-10s %-5s %-6s %s\n", "SEQ", "ACTION", "POS", "BLOCK", "DETAIL")
	for _, s := range steps {
		fmt.Fprintf(w, "%-5d %-10s %-5d %-6d %s\n", s.Seq, s.Action, s.Pos, s.Block, s.Detail)
	}
}
