package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	File string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Records int                        `json:"records"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [program...]",
		Short: "Check a program without evaluating it",
		Long: `Check block balance and operator placement without evaluating.

Reports every problem found (unbalanced end, else outside an if, ret/0,
call, operators that can never have enough operands) with its record
index and code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the program from a file (- for stdin)")

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, opts *ValidateOptions, args []string) error {
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
	formatter.VerboseLog("Compiled %d records", len(items))

	errs := compiler.Validate(items)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(items), errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Records: len(items)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Program valid (%d records)\n", len(items))
	return nil
}

// outputValidationErrors reports every validation error and fails with
// ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, records int, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Records: records, Errors: errs},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: errs[0].Error(),
			},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "record %d (%s)\n", e.Index, e.Token)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failure
}
