package cli

import (
	"bytes"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/ir"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Operators []string // overrides [interpreter] operators from the config
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <batch>",
		Short: "Run an operation batch",
		Long: `Run a batch of operation descriptors through runOperations.

The batch is a .json array, a .yaml/.yml list, or a .cue file (or directory
of CUE files) with an operations field. Operations run in order; the first
failure stops the batch and earlier output stays.

Examples:
  hostbridge run ./batch.json
  hostbridge run ./batch.yaml --operators print
  hostbridge run ./batches/ --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Operators, "operators", nil, "restrict recognised operators")

	return cmd
}

func runBatch(opts *RunOptions, path string, cmd *cobra.Command) error {
	opts.ensure()
	f := opts.formatter(cmd)

	f.VerboseLog("loading batch %s", path)
	ops, err := LoadBatch(path)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			_ = f.Error(ErrorCode(err), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load batch", err)
		}
		return f.Fail("failed to load batch", err, nil)
	}
	count := 0
	if arr, ok := ops.(ir.Array); ok {
		count = len(arr)
	}

	// JSON output wraps what the batch printed, so capture it
	var stdout io.Writer = cmd.OutOrStdout()
	var captured bytes.Buffer
	if f.Format == "json" {
		stdout = &captured
	}

	if len(opts.Operators) > 0 {
		opts.Config.Interpreter.Operators = opts.Operators
	}
	m, _, _, cleanup := opts.newModule(stdout)
	defer cleanup()

	opts.Logger.Debug("running batch", "path", path, "operations", count, "operators", m.Operators())
	if err := m.RunOperations(ops); err != nil {
		return f.Fail("run failed", err, map[string]interface{}{"stdout": captured.String()})
	}

	if f.Format == "json" {
		return f.Success(map[string]interface{}{
			"operations": count,
			"stdout":     captured.String(),
		})
	}
	return nil
}
