package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
	"github.com/LowLevelDaniel/rpnmath/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	DBPath    string
	SessionID string
	Program   string
	Where     []string
}

// SessionView is one stored session.
type SessionView struct {
	ID            string `json:"id"`
	Policy        string `json:"policy"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
	Evaluations   int    `json:"evaluations"`
}

// EvaluationView is one stored evaluation.
type EvaluationView struct {
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
	Program   string `json:"program"`
	Hash      string `json:"hash"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	Steps     int    `json:"steps"`
}

// HistoryResult is the payload of the history command. Exactly one of
// Sessions and Evaluations is set.
type HistoryResult struct {
	Sessions    []SessionView    `json:"sessions,omitempty"`
	Evaluations []EvaluationView `json:"evaluations,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions and evaluations",
		Long: `List the contents of a history database written by eval --db or
repl --db.

Without flags every session is listed with its evaluation count.
--session lists the evaluations of one session in seq order.
--program lists every evaluation of a program across sessions; programs
match by their records, so spacing does not matter.
--where field=value narrows the evaluations listed; it may be repeated and
combined with --session or --program. Fields: bits, error, hash, program,
seq, session, steps, value.

Examples:
  rpnmath history --db history.db
  rpnmath history --db history.db --session 0190a5a4-...
  rpnmath history --db history.db --program '3 4 +'
  rpnmath history --db history.db --where error=DIVISION_BY_ZERO`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "history database (defaults to config history)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "list evaluations of this session")
	cmd.Flags().StringVar(&opts.Program, "program", "", "list evaluations of this program")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter evaluations by field=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("session", "program")

	return cmd
}

func runHistory(cmd *cobra.Command, rootOpts *RootOptions, opts *HistoryOptions) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = cfg.History
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no history database: pass --db or set history in the config")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return formatter.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("database not found: %s", dbPath), nil)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := context.Background()
	var result HistoryResult
	switch {
	case len(opts.Where) > 0:
		pred, err := historyFilter(opts)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
		}
		evs, err := st.QueryEvaluations(ctx, pred)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.Evaluations = evaluationViews(evs)

	case opts.SessionID != "":
		if _, err := st.ReadSession(ctx, opts.SessionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return formatter.fail(ExitFailure, ErrCodeStore, fmt.Sprintf("session not found: %s", opts.SessionID), nil)
			}
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		evs, err := st.ReadEvaluations(ctx, opts.SessionID)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.Evaluations = evaluationViews(evs)

	case opts.Program != "":
		items, err := compiler.Compile(opts.Program, 0)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), compileErrorDetails(err))
		}
		hash, err := ir.ProgramHash(items)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), nil)
		}
		formatter.VerboseLog("Program hash %s", hash)
		evs, err := st.FindByProgramHash(ctx, hash)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result.Evaluations = evaluationViews(evs)

	default:
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		for _, sess := range sessions {
			evs, err := st.ReadEvaluations(ctx, sess.ID)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			result.Sessions = append(result.Sessions, SessionView{
				ID:            sess.ID,
				Policy:        sess.Policy,
				EngineVersion: sess.EngineVersion,
				IRVersion:     sess.IRVersion,
				Evaluations:   len(evs),
			})
		}
	}

	listingSessions := opts.SessionID == "" && opts.Program == "" && len(opts.Where) == 0
	return formatter.Emit(result, func(w io.Writer) {
		if listingSessions {
			writeSessions(w, result.Sessions)
			return
		}
		writeEvaluations(w, result.Evaluations)
	})
}

// historyFilter combines --where terms with --session and --program.
func historyFilter(opts *HistoryOptions) (store.Predicate, error) {
	pred, err := store.ParseFilter(opts.Where)
	if err != nil {
		return nil, err
	}
	and := pred.(store.And)
	if opts.SessionID != "" {
		and.Predicates = append(and.Predicates, store.Equals{Field: "session", Value: opts.SessionID})
	}
	if opts.Program != "" {
		items, err := compiler.Compile(opts.Program, 0)
		if err != nil {
			return nil, err
		}
		hash, err := ir.ProgramHash(items)
		if err != nil {
			return nil, err
		}
		and.Predicates = append(and.Predicates, store.Equals{Field: "hash", Value: hash})
	}
	return and, nil
}

func evaluationViews(evs []store.Evaluation) []EvaluationView {
	out := make([]EvaluationView, len(evs))
	for i, ev := range evs {
		v := EvaluationView{
			SessionID: ev.SessionID,
			Seq:       ev.Seq,
			Program:   ev.Program,
			Hash:      ev.ProgramHash,
			Steps:     ev.Steps,
		}
		if ev.HasResult {
			v.Outcome = engine.Describe(ev.Value, ev.Bits)
		} else {
			v.Outcome = "error:" + ev.ErrorCode
			v.Error = ev.ErrorMessage
		}
		out[i] = v
	}
	return out
}

func writeSessions(w io.Writer, sessions []SessionView) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %-9s  %d evaluation(s)\n", s.ID, s.Policy, s.Evaluations)
	}
}

func writeEvaluations(w io.Writer, evs []EvaluationView) {
	if len(evs) == 0 {
		fmt.Fprintln(w, "No evaluations recorded.")
		return
	}
	for _, ev := range evs {
		fmt.Fprintf(w, "%s #%d  %s  =>  %s (%d steps)\n", ev.SessionID, ev.Seq, ev.Program, ev.Outcome, ev.Steps)
	}
}
