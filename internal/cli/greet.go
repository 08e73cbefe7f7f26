package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/ir"
)

// GreetOptions holds flags for the greet command.
type GreetOptions struct {
	*RootOptions
	Name string
	Body string // raw JSON request body, overrides Name
}

// NewGreetCommand creates the greet command.
func NewGreetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GreetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "greet",
		Short: "Call greet with a request body",
		Long: `Call greet the way a script would: the body is JSON text passed as
bytes, and the response is JSON text returned as bytes.

Examples:
  hostbridge greet --name World
  hostbridge greet --body '{"name":"World"}'
  hostbridge greet --body '{}' --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGreet(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "World", "name to greet")
	cmd.Flags().StringVar(&opts.Body, "body", "", "raw JSON request body (overrides --name)")

	return cmd
}

func runGreet(opts *GreetOptions, cmd *cobra.Command) error {
	opts.ensure()
	f := opts.formatter(cmd)

	body := opts.Body
	if body == "" {
		hello, err := codec.Encode(bridge.HelloRequest{Name: opts.Name})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build request", err)
		}
		if body, err = ir.Render(hello); err != nil {
			return WrapExitError(ExitCommandError, "failed to build request", err)
		}
	}
	f.VerboseLog("request body: %s", body)

	req, err := codec.Encode(bridge.Request{Body: []byte(body)})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build request", err)
	}

	m, _, _, cleanup := opts.newModule(cmd.OutOrStdout())
	defer cleanup()

	out, err := m.Greet(req)
	if err != nil {
		return f.Fail("greet failed", err, nil)
	}

	if f.Format == "json" {
		res, err := ir.Parse(out)
		if err != nil {
			return fmt.Errorf("greet returned malformed JSON: %w", err)
		}
		return f.Success(ir.ToAny(res))
	}
	return f.Success(string(out))
}
