package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/hostjs"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <script.js>",
		Short: "Run a script against the hostbridge module",
		Long: `Run a JavaScript file in an embedded runtime where
require("hostbridge") returns the export table. The command waits until
every scheduled completion has been delivered.

Example script:
  const hb = require("hostbridge");
  hb.scheduleTask((err, v) => console.log(v));

Examples:
  hostbridge exec ./script.js
  hostbridge exec ./script.js --config hostbridge.toml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	opts.ensure()
	f := opts.formatter(cmd)

	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			_ = f.Error(ErrCodeNotFound, "script not found: "+path, nil)
		}
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	rtOpts := []hostjs.Option{
		hostjs.WithStdout(cmd.OutOrStdout()),
		hostjs.WithLogger(opts.Logger),
		hostjs.WithModuleOptions(opts.Config.moduleOptions()...),
	}
	if opts.Config.Workers > 0 {
		rtOpts = append(rtOpts, hostjs.WithWorkers(opts.Config.Workers))
	}
	rt := hostjs.New(rtOpts...)
	defer rt.Close()

	ctx, cancel := signalContext(cmd, opts.Logger)
	defer cancel()

	f.VerboseLog("executing %s", path)
	if err := rt.Exec(ctx, filepath.Base(path), string(src)); err != nil {
		var se *hostjs.ScriptError
		if errors.As(err, &se) {
			_ = f.Error(ErrCodeScript, se.Message, nil)
			return WrapExitError(ExitFailure, "script failed", err)
		}
		return WrapExitError(ExitCommandError, "failed to run script", err)
	}
	f.VerboseLog("%d completion(s) delivered", rt.Delivered())
	return nil
}
