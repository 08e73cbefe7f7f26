package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hostbridge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update  bool          // rewrite golden snapshots from this run
	Filter  string        // glob over scenario file names, without extension
	Timeout time.Duration // per-scenario limit, 0 keeps the harness default
}

// Golden snapshot outcomes reported per scenario.
const (
	goldenMatched  = "matched"
	goldenUpdated  = "updated"
	goldenMismatch = "mismatch"
)

// ScenarioResult is what one scenario did and what went wrong with it.
// Stdout, Error and Callbacks are the observed values, reported whether or
// not the scenario passed.
type ScenarioResult struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Pass      bool     `json:"pass"`
	Stdout    string   `json:"stdout"`
	Error     string   `json:"error,omitempty"`
	Callbacks int64    `json:"callbacks"`
	Golden    string   `json:"golden,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *ScenarioResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// TestResult is the whole run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (t *TestResult) add(r ScenarioResult) {
	t.Scenarios = append(t.Scenarios, r)
	t.Total++
	if r.Pass {
		t.Passed++
	} else {
		t.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario harness",
		Long: `Run YAML scenarios through the harness.

Each scenario runs a script or an operation batch against a fresh host and
checks its expected stdout, error and callback count. When
<scenarios-dir>/golden/<name>.golden exists, the run's snapshot must match it
as well; mismatching fields are listed one by one.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  hostbridge test ./scenarios
  hostbridge test ./scenarios --filter "greet*"
  hostbridge test ./scenarios --update
  hostbridge test ./scenarios --timeout 2s --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots from this run")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-scenario time limit (default: harness default)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	opts.ensure()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	ctx, cancel := signalContext(cmd, opts.Logger)
	defer cancel()

	hopts := []harness.Option{harness.WithLogger(opts.Logger)}
	if opts.Timeout > 0 {
		hopts = append(hopts, harness.WithTimeout(opts.Timeout))
	}
	r := &scenarioRunner{harness: harness.New(hopts...), update: opts.Update}

	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	result := TestResult{Scenarios: []ScenarioResult{}}

	for _, file := range files {
		sr := r.run(ctx, file)
		result.add(sr)
		if text {
			reportScenario(w, sr)
		}
	}

	if !text {
		return writeTestJSON(w, result)
	}
	return writeTestSummary(w, result)
}

// findScenarioFiles walks dir for .yaml and .yml files, skipping golden
// directories. filter, when set, is matched against the base name without
// its extension.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			// Pattern was checked above
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// scenarioRunner runs scenario files one at a time against a shared harness.
type scenarioRunner struct {
	harness *harness.Harness
	update  bool
}

func (r *scenarioRunner) run(ctx context.Context, file string) (sr ScenarioResult) {
	sr = ScenarioResult{Name: filepath.Base(file), File: file}
	defer func() { sr.Pass = len(sr.Errors) == 0 }()

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.fail("load error: %v", err)
		return sr
	}
	sr.Name = scenario.Name

	result, err := r.harness.Run(ctx, scenario)
	if err != nil {
		sr.fail("execution error: %v", err)
		return sr
	}
	sr.Stdout = result.Stdout
	sr.Error = result.Error
	sr.Callbacks = result.Callbacks
	sr.Errors = append(sr.Errors, result.Errors...)

	snap, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		sr.fail("snapshot: %v", err)
		return sr
	}

	path := goldenFilePath(file)
	if r.update {
		if err := writeGolden(path, snap); err != nil {
			sr.fail("golden update: %v", err)
			return sr
		}
		sr.Golden = goldenUpdated
		return sr
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return sr
	case err != nil:
		sr.fail("golden: %v", err)
		return sr
	}

	diffs, err := diffSnapshots(want, snap)
	if err != nil {
		sr.fail("golden: %v", err)
		return sr
	}
	if len(diffs) == 0 {
		sr.Golden = goldenMatched
		return sr
	}
	sr.Golden = goldenMismatch
	for _, d := range diffs {
		sr.fail("golden %s", d)
	}
	return sr
}

// goldenFilePath returns <dir>/golden/<name>.golden for <dir>/<name>.yaml.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path string, snap []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, snap, 0644)
}

// snapshotFields mirrors the fields harness.Snapshot renders.
type snapshotFields struct {
	ScenarioName string `json:"scenario_name"`
	Stdout       string `json:"stdout"`
	Error        string `json:"error"`
	Callbacks    int64  `json:"callbacks"`
}

// diffSnapshots compares a stored golden snapshot with the current one and
// describes each differing field. Trailing whitespace in the golden file is
// ignored.
func diffSnapshots(golden, current []byte) ([]string, error) {
	golden = bytes.TrimSpace(golden)
	if bytes.Equal(golden, current) {
		return nil, nil
	}

	var want, got snapshotFields
	if err := json.Unmarshal(golden, &want); err != nil {
		return nil, fmt.Errorf("malformed golden file: %w", err)
	}
	if err := json.Unmarshal(current, &got); err != nil {
		return nil, err
	}

	var diffs []string
	if want.ScenarioName != got.ScenarioName {
		diffs = append(diffs, fmt.Sprintf("scenario_name: expected %s, got %s", strconv.Quote(want.ScenarioName), strconv.Quote(got.ScenarioName)))
	}
	if want.Stdout != got.Stdout {
		diffs = append(diffs, fmt.Sprintf("stdout: expected %s, got %s", strconv.Quote(want.Stdout), strconv.Quote(got.Stdout)))
	}
	if want.Error != got.Error {
		diffs = append(diffs, fmt.Sprintf("error: expected %s, got %s", strconv.Quote(want.Error), strconv.Quote(got.Error)))
	}
	if want.Callbacks != got.Callbacks {
		diffs = append(diffs, fmt.Sprintf("callbacks: expected %d, got %d", want.Callbacks, got.Callbacks))
	}
	if len(diffs) == 0 {
		// Same fields, different bytes: hand edited or not canonical.
		diffs = append(diffs, "snapshot is not in canonical form")
	}
	return diffs, nil
}

// reportScenario prints one scenario's line and, on failure, what was
// observed and every error.
func reportScenario(w io.Writer, sr ScenarioResult) {
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	line := mark + " " + sr.Name
	if sr.Golden == goldenUpdated {
		line += " (golden updated)"
	}
	fmt.Fprintln(w, line)

	if sr.Pass {
		return
	}
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "    %s\n", e)
	}
	if sr.Golden == goldenMismatch {
		fmt.Fprintln(w, "    golden file mismatch, run with --update to regenerate")
	}
}

func writeTestSummary(w io.Writer, result TestResult) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func writeTestJSON(w io.Writer, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}

	var exitErr error
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		response.Status = "error"
		response.Error = &CLIError{Code: ErrCodeTestFailed, Message: msg}
		exitErr = NewExitError(ExitFailure, msg)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(response); err != nil {
		return err
	}
	return exitErr
}
