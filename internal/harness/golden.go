package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hostbridge/internal/ir"
)

// Snapshot renders the observable outcome of a run as canonical JSON.
// Validation errors are left out: they describe the expectation, not the run.
func Snapshot(name string, result *Result) ([]byte, error) {
	obj := ir.NewObject(
		ir.M("scenario_name", ir.String(name)),
		ir.M("stdout", ir.String(result.Stdout)),
		ir.M("callbacks", ir.Number(result.Callbacks)),
	)
	if result.Error != "" {
		obj.Set("error", ir.String(result.Error))
	}
	return ir.RenderCanonical(obj)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
