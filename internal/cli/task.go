package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/ir"
)

// TaskOptions holds flags for the task command.
type TaskOptions struct {
	*RootOptions
	Count int
}

// completion is one delivered scheduleTask result.
type completion struct {
	Seq    int         `json:"seq"`
	TaskID string      `json:"task_id"`
	Value  interface{} `json:"value,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewTaskCommand creates the task command.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Schedule reference tasks and print their completions",
		Long: `Call scheduleTask --count times, then drive the host loop until every
completion has been delivered. Completions print in delivery order.

Examples:
  hostbridge task
  hostbridge task --count 8 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of tasks to schedule")

	return cmd
}

func runTask(opts *TaskOptions, cmd *cobra.Command) error {
	opts.ensure()
	f := opts.formatter(cmd)

	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid count %d: must be at least 1", opts.Count))
	}

	ctx, cancel := signalContext(cmd, opts.Logger)
	defer cancel()

	m, loop, sched, cleanup := opts.newModule(cmd.OutOrStdout())
	defer cleanup()

	// Completions run on this goroutine, inside loop.Run
	var (
		results []completion
		failed  error
	)
	for i := 0; i < opts.Count; i++ {
		var id string
		task := m.ScheduleTask(func(err error, value ir.Value) {
			c := completion{Seq: len(results) + 1, TaskID: id}
			if err != nil {
				c.Error = bridge.Message(err)
				if failed == nil {
					failed = err
				}
			} else {
				c.Value = ir.ToAny(value)
			}
			results = append(results, c)
		})
		id = task.ID()
	}
	f.VerboseLog("scheduled %d task(s) on %d worker(s)", opts.Count, sched.Workers())

	go func() {
		if err := sched.Wait(ctx); err != nil {
			opts.Logger.Debug("wait interrupted", "error", err)
		}
		loop.Stop()
	}()
	if err := loop.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "interrupted", err)
	}

	if f.Format == "json" {
		if err := f.Success(map[string]interface{}{"completions": results}); err != nil {
			return err
		}
	} else {
		for _, c := range results {
			if c.Error != "" {
				fmt.Fprintf(f.Writer, "completion %d: error: %s\n", c.Seq, c.Error)
				continue
			}
			fmt.Fprintf(f.Writer, "completion %d: %v\n", c.Seq, c.Value)
		}
	}

	if failed != nil {
		return WrapExitError(ExitFailure, "task failed", failed)
	}
	return nil
}
