package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/config"
	"github.com/LowLevelDaniel/rpnmath/internal/store"
)

func TestRepl_EvaluatesLines(t *testing.T) {
	input := "3 4 +\n\n5 0 /\n200 300 *\nquit\n10 10 +\n"

	out, err := executeCommand(t, input, "repl")
	require.NoError(t, err)

	assert.Contains(t, out, "7:i8\n")
	assert.Contains(t, out, "Error [DIVISION_BY_ZERO]")
	assert.Contains(t, out, "60000:i32\n")
	assert.NotContains(t, out, "20:i8", "lines after quit must not be evaluated")
	assert.Equal(t, 5, strings.Count(out, replPrompt))
}

func TestRepl_EndOfInput(t *testing.T) {
	out, err := executeCommand(t, "1 2 +", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "3:i8\n")
}

func TestRepl_LinesDoNotShareVariables(t *testing.T) {
	out, err := executeCommand(t, "5 $0 = $0\n$0\n:quit\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "5:i8\n")
	assert.Contains(t, out, "Error [UNASSIGNED_VARIABLE]")
}

func TestRepl_Commands(t *testing.T) {
	input := ":vars\n7 $2 = $2 1 +\n:vars\n:trace\n:help\n:bogus\n:q\n"

	out, err := executeCommand(t, input, "repl")
	require.NoError(t, err)

	assert.Contains(t, out, "no evaluation yet")
	assert.Contains(t, out, "8:i8\n")
	assert.Contains(t, out, "$2 = 7:i8 (v1, block 0)")
	assert.Contains(t, out, "ACTION")
	assert.Contains(t, out, "assign")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "unknown command :bogus")
}

func TestRepl_CompileErrorContinues(t *testing.T) {
	out, err := executeCommand(t, "3 x +\n1 1 +\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "Error [E002]")
	assert.Contains(t, out, "2:i8\n")
}

func TestRepl_JSON(t *testing.T) {
	out, err := executeCommand(t, "3 4 +\n", "--format", "json", "repl")
	require.NoError(t, err)

	line := strings.TrimPrefix(strings.Split(out, "\n")[0], replPrompt)
	var result EvalResult
	resp := decodeResponse(t, line, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(7), result.Value)
}

func TestRepl_RecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := executeCommand(t, "1 2 +\n2 0 /\nbad!\n:vars\n", "repl", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	evs, err := st.ReadEvaluations(ctx, sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, evs, 2, "compile errors and commands are not recorded")
	assert.Equal(t, "1 2 +", evs[0].Program)
	assert.Equal(t, "DIVISION_BY_ZERO", evs[1].ErrorCode)
}

func TestScanReader(t *testing.T) {
	out := &bytes.Buffer{}
	r := newScanReader(strings.NewReader("first\nsecond"), out)

	line, err := r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	_, err = r.Prompt("> ")
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, "> > > \n", out.String())
}

// scriptedReader returns canned responses, including errors.
type scriptedReader struct {
	lines   []string
	errs    []error
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line, err := r.lines[0], r.errs[0]
	r.lines, r.errs = r.lines[1:], r.errs[1:]
	return line, err
}

func (r *scriptedReader) AppendHistory(item string) { r.history = append(r.history, item) }

func TestReplLoop_HistoryAndReadErrors(t *testing.T) {
	out := &bytes.Buffer{}
	r := &repl{
		cfg:       config.Default(),
		rootOpts:  &RootOptions{},
		formatter: &OutputFormatter{Format: "text", Writer: out},
	}

	rd := &scriptedReader{
		lines: []string{" 1 1 + ", "", "", "2 2 +", ""},
		errs:  []error{nil, nil, nil, nil, errors.New("terminal gone")},
	}

	err := r.loop(context.Background(), rd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, []string{"1 1 +", "2 2 +"}, rd.history)
	assert.Equal(t, "2:i8\n4:i8\n", out.String())
}

func TestReplLoop_BadEngineConfigStops(t *testing.T) {
	out := &bytes.Buffer{}
	cfg := config.Default()
	cfg.Policy = "loose"
	r := &repl{
		cfg:       cfg,
		rootOpts:  &RootOptions{},
		formatter: &OutputFormatter{Format: "text", Writer: out},
	}

	rd := &scriptedReader{lines: []string{"1 1 +", "2 2 +"}, errs: []error{nil, nil}}
	err := r.loop(context.Background(), rd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid engine configuration")
	assert.NotContains(t, out.String(), "E002", "a config error is not a compile error")
	assert.Equal(t, []string{"1 1 +"}, rd.history)
}
