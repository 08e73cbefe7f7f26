package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/ir"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Canonical bool
	Output    string // "json" | "cbor"
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <text|->",
		Short: "Parse JSON text and render it back",
		Long: `Parse JSON text with parseText and render the value with renderText.
Use - to read the text from stdin.

--canonical renders RFC 8785 canonical JSON (sorted keys, NFC strings).
--output cbor prints the value's CBOR encoding as hex.

Examples:
  hostbridge parse '{"b":1,"a":[true,null]}'
  echo '{"b":1,"a":2}' | hostbridge parse - --canonical
  hostbridge parse '[1,2,3]' --output cbor`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "render canonical JSON")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "output encoding (json|cbor)")

	return cmd
}

func runParse(opts *ParseOptions, arg string, cmd *cobra.Command) error {
	opts.ensure()
	f := opts.formatter(cmd)

	if opts.Output != "json" && opts.Output != "cbor" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid output %q: must be json or cbor", opts.Output))
	}

	text := arg
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	m, _, _, cleanup := opts.newModule(cmd.OutOrStdout())
	defer cleanup()

	v, err := m.ParseText(ir.String(text))
	if err != nil {
		return f.Fail("parse failed", err, nil)
	}

	var rendered string
	switch {
	case opts.Output == "cbor":
		data, err := ir.MarshalCBOR(v)
		if err != nil {
			return f.Fail("cbor encoding failed", err, nil)
		}
		rendered = hex.EncodeToString(data)
	case opts.Canonical:
		data, err := ir.RenderCanonical(v)
		if err != nil {
			return f.Fail("render failed", err, nil)
		}
		rendered = string(data)
	default:
		if rendered, err = m.RenderText(v); err != nil {
			return f.Fail("render failed", err, nil)
		}
	}

	if f.Format == "json" {
		return f.Success(map[string]interface{}{
			"kind":     ir.KindOf(v),
			"encoding": opts.Output,
			"output":   rendered,
		})
	}
	return f.Success(rendered)
}
