package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "batch.json", wantBatch)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "✓ 2 operation(s) valid\n", buf.String())
}

func TestValidate_ReportsEveryError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "batch.yaml", `
- {operator: bogus}
- {operator: print, value: fine}
- {operator: print}
`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Operations)
	assert.Equal(t, []ValidationError{
		{Code: ErrCodeUnsupported, Message: "unsupported operator: bogus"},
		{Code: ErrCodeSchema, Message: `operation 2: missing field "value"`},
	}, resp.Data.Errors)
}

func TestValidate_Operators(t *testing.T) {
	path := writeFile(t, t.TempDir(), "batch.json", wantBatch)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--operators", "none"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ 2 error(s):")
	assert.Contains(t, buf.String(), "[E004] unsupported operator: print")
}

func TestValidate_LoadError(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/batch.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E005]")
}
