package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	File string
}

// RecordView is one compiled record.
type RecordView struct {
	Pos    int    `json:"pos"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}

// CompileResult is the compiled layout of a program.
type CompileResult struct {
	Records  []RecordView `json:"records"`
	Size     int          `json:"size"`
	Capacity int          `json:"capacity"`
	Hash     string       `json:"hash"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile [program...]",
		Short: "Show the record layout of a program",
		Long: `Compile a program into records without evaluating it.

Prints each record with its byte offset and size, the buffer totals and
the program hash used to identify evaluations in the history database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the program from a file (- for stdin)")

	return cmd
}

func runCompile(cmd *cobra.Command, rootOpts *RootOptions, opts *CompileOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := rootOpts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	src, err := readProgram(cmd, args, opts.File)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInput, err.Error(), nil)
	}

	items, err := compiler.Compile(src, cfg.MaxVariables)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), compileErrorDetails(err))
	}

	result, err := layout(items)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCompile, err.Error(), nil)
	}

	return formatter.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "%-5s %-7s %-5s %-12s %s\n", "POS", "OFFSET", "SIZE", "KIND", "RECORD")
		for _, r := range result.Records {
			fmt.Fprintf(w, "%-5d %-7d %-5d %-12s %s\n", r.Pos, r.Offset, r.Size, r.Kind, r.Text)
		}
		fmt.Fprintf(w, "%d records, %d bytes (capacity %d)\n", len(result.Records), result.Size, result.Capacity)
		fmt.Fprintf(w, "hash: %s\n", result.Hash)
	})
}

// layout loads items into a buffer and describes each record.
func layout(items []ir.Item) (CompileResult, error) {
	hash, err := ir.ProgramHash(items)
	if err != nil {
		return CompileResult{}, err
	}

	buf := buffer.FromItems(items)
	result := CompileResult{
		Records:  make([]RecordView, 0, buf.Len()),
		Size:     buf.Size(),
		Capacity: buf.Cap(),
		Hash:     hash,
	}
	offset := 0
	for pos := 0; pos < buf.Len(); pos++ {
		it := buf.At(pos)
		result.Records = append(result.Records, RecordView{
			Pos:    pos,
			Offset: offset,
			Size:   it.Size(),
			Kind:   it.Kind().String(),
			Text:   fmt.Sprint(it),
		})
		offset += it.Size()
	}
	return result, nil
}
