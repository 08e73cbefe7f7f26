package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/ir"
)

// ValidationError describes one rejected descriptor.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Operations int               `json:"operations"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Operators []string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <batch>",
		Short: "Check an operation batch without running it",
		Long: `Check every descriptor of a batch against the operation schema.

Unlike run, validate does not stop at the first bad descriptor and never
prints anything a descriptor would print.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Operators, "operators", nil, "restrict recognised operators")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	opts.ensure()
	formatter := opts.formatter(cmd)

	ops, err := LoadBatch(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Error())
		}
		return outputValidateError(formatter, ErrorCode(err), bridge.Message(err))
	}

	if len(opts.Operators) > 0 {
		opts.Config.Interpreter.Operators = opts.Operators
	}
	m, _, _, cleanup := opts.newModule(io.Discard)
	defer cleanup()

	result := ValidationResult{Valid: true}
	if arr, ok := ops.(ir.Array); ok {
		result.Operations = len(arr)
	}
	for _, e := range m.CheckOperations(ops) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    ErrorCode(e),
			Message: bridge.Message(e),
		})
	}
	formatter.VerboseLog("checked %d operation(s) in %s", result.Operations, path)

	return outputValidateResult(formatter, result)
}

func outputValidateResult(f *OutputFormatter, result ValidationResult) error {
	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(f.Writer, "✓ %d operation(s) valid\n", result.Operations)
	} else {
		fmt.Fprintf(f.Writer, "✗ %d error(s):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(f.Writer, "  [%s] %s\n", e.Code, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid operation(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateError(f *OutputFormatter, code, message string) error {
	if err := f.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, message)
}
