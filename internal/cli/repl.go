package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/config"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
)

const (
	replPrompt      = "rpn> "
	replHistoryFile = ".rpnmath_history"
)

const replHelp = `Enter a postfix program to evaluate it, e.g. 3 4 +
Each line is evaluated on its own; variables do not carry over.

Commands:
  :help          show this help
  :vars          show the variables of the last evaluation
  :trace         show the executor steps of the last evaluation
  :quit, quit    leave the REPL
`

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	DBPath      string
	HistoryFile string

	// Sessions names the history session. Defaults to UUIDv7.
	Sessions engine.SessionIDGenerator
}

// lineReader is the part of *liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scanReader reads lines from a non-terminal input, e.g. a pipe or a test.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScanReader(in io.Reader, out io.Writer) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		fmt.Fprintln(r.out)
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) AppendHistory(string) {}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{Sessions: engine.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive evaluation loop",
		Long: `Read programs line by line and print each result.

Line editing and history are provided when stdin is a terminal; history
is kept in ~/.rpnmath_history. With --db every evaluation is appended to
one history session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record evaluations in this history database (defaults to config history)")
	cmd.Flags().StringVar(&opts.HistoryFile, "history-file", "", "line history file (default ~/.rpnmath_history)")

	return cmd
}

func runRepl(cmd *cobra.Command, rootOpts *RootOptions, opts *ReplOptions) error {
	cfg, err := rootOpts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	formatter := rootOpts.formatter(cmd)
	ctx := context.Background()

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.History
	}
	var hist *history
	if dbPath != "" {
		hist, err = openHistory(ctx, dbPath, "", cfg, opts.Sessions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer hist.Close()
		formatter.SessionID = hist.SessionID()
		formatter.VerboseLog("Recording to session %s", hist.SessionID())
	}

	r := &repl{
		cfg:       cfg,
		rootOpts:  rootOpts,
		formatter: formatter,
		history:   hist,
	}

	if in := cmd.InOrStdin(); in != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return r.loop(ctx, newScanReader(in, cmd.OutOrStdout()))
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := opts.HistoryFile
	if histPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, replHistoryFile)
		}
	}
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "rpnmath REPL. Type :help for commands, :quit to leave.")
	return r.loop(ctx, ln)
}

// repl evaluates lines until quit or end of input.
type repl struct {
	cfg       config.Config
	rootOpts  *RootOptions
	formatter *OutputFormatter
	history   *history

	last  *evaluation
	trace *engine.TraceLog
}

func (r *repl) loop(ctx context.Context, rd lineReader) error {
	for {
		line, err := rd.Prompt(replPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rd.AppendHistory(line)

		if line == "quit" || strings.HasPrefix(line, ":") {
			if done := r.command(line); done {
				return nil
			}
			continue
		}

		if err := r.eval(ctx, line); err != nil {
			return err
		}
	}
}

// command handles a REPL command and reports whether to leave.
func (r *repl) command(line string) bool {
	w := r.formatter.Writer
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "quit", ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprint(w, replHelp)
	case ":vars":
		if r.last == nil {
			fmt.Fprintln(w, "no evaluation yet")
			break
		}
		slots := slotViews(r.last.Vars)
		if len(slots) == 0 {
			fmt.Fprintln(w, "no variables assigned")
		}
		writeSlots(w, slots)
	case ":trace":
		if r.trace == nil {
			fmt.Fprintln(w, "no evaluation yet")
			break
		}
		steps := make([]TraceStep, len(r.trace.Steps))
		for i, s := range r.trace.Steps {
			steps[i] = TraceStep{Seq: s.Seq, Action: s.Action, Pos: s.Pos, Block: int(s.Block), Detail: s.Detail}
		}
		writeTrace(w, steps)
	default:
		fmt.Fprintf(w, "unknown command %s (try :help)\n", line)
	}
	return false
}

// eval evaluates one line. Program errors are printed; an unusable engine
// configuration or a history database failure ends the loop.
func (r *repl) eval(ctx context.Context, line string) error {
	log := &engine.TraceLog{}
	ev, err := evaluate(line, r.cfg, r.rootOpts.Logger(), log)
	if err != nil {
		var ce *compiler.CompileError
		if !errors.As(err, &ce) {
			return WrapExitError(ExitCommandError, "invalid engine configuration", err)
		}
		_ = r.formatter.Error(ErrCodeCompile, err.Error(), compileErrorDetails(err))
		return nil
	}
	r.last, r.trace = ev, log

	if r.history != nil {
		stored, err := r.history.Record(ctx, ev)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record evaluation", err)
		}
		r.formatter.VerboseLog("Recorded seq %d", stored.Seq)
	}

	if ev.Err != nil {
		_ = r.formatter.Error(ev.Code(), ev.Err.Error(), runtimeErrorDetails(ev.Err))
		return nil
	}
	text := engine.Describe(ev.Value.Int64(), ev.Value.Type.Bits)
	return r.formatter.Emit(EvalResult{
		Value: ev.Value.Int64(),
		Bits:  ev.Value.Type.Bits,
		Text:  text,
		Steps: ev.Steps,
	}, func(w io.Writer) {
		fmt.Fprintln(w, text)
	})
}
