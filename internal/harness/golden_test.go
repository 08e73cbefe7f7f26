package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios against its
// expectations and its golden snapshot.
//
// To regenerate golden files:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot(t *testing.T) {
	data, err := Snapshot("demo", &Result{Stdout: "a\n\"b\"\n", Callbacks: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"callbacks":2,"scenario_name":"demo","stdout":"a\n\"b\"\n"}`, string(data))

	data, err = Snapshot("demo", &Result{Error: "unsupported operator: bogus"})
	require.NoError(t, err)
	assert.Equal(t, `{"callbacks":0,"error":"unsupported operator: bogus","scenario_name":"demo","stdout":""}`, string(data))
}

func TestSnapshot_IgnoresValidationErrors(t *testing.T) {
	a, err := Snapshot("s", &Result{Stdout: "x", Pass: true})
	require.NoError(t, err)
	b, err := Snapshot("s", &Result{Stdout: "x", Errors: []string{"stdout mismatch"}})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGoldenFilesHaveScenarios(t *testing.T) {
	goldens, err := filepath.Glob(filepath.Join("testdata", "golden", "*.golden"))
	require.NoError(t, err)

	for _, g := range goldens {
		name := strings.TrimSuffix(filepath.Base(g), ".golden")
		_, err := os.Stat(filepath.Join("testdata", "scenarios", name+".yaml"))
		assert.NoError(t, err, "golden file %s has no scenario", name)
	}
}
