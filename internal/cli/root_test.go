package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rpnmath", cmd.Use)
	assert.Contains(t, cmd.Long, "postfix")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"eval", "compile", "validate", "trace", "repl", "test", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	root := NewRootCommand()

	tests := []struct {
		flag, short, def string
	}{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"config", "", ""},
	}
	for _, tt := range tests {
		f := root.PersistentFlags().Lookup(tt.flag)
		if assert.NotNil(t, f, "--%s", tt.flag) {
			assert.Equal(t, tt.short, f.Shorthand, "--%s shorthand", tt.flag)
			assert.Equal(t, tt.def, f.DefValue, "--%s default", tt.flag)
		}
	}

	eval, _, err := root.Find([]string{"eval"})
	require.NoError(t, err)
	assert.Equal(t, "f", eval.Flags().ShorthandLookup("f").Shorthand)
	for _, name := range []string{"file", "vars", "db", "session"} {
		assert.NotNil(t, eval.Flags().Lookup(name), "eval --%s", name)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "", "--format", "xml", "eval", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_MissingConfig(t *testing.T) {
	_, err := executeCommand(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "eval", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "policy: sloppy\n")

	_, err := executeCommand(t, "", "--config", path, "eval", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootOptions_ConfigDefaults(t *testing.T) {
	opts := &RootOptions{}
	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.Equal(t, "versioned", cfg.Policy)
	assert.NotNil(t, opts.Logger())
}
