package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreet(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewGreetCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--name", "World"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "{\"greeting\":\"Hello, World!\"}\n", buf.String())
}

func TestGreet_Body(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewGreetCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--body", `{"name":"Ada","extra":true}`})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]interface{}{"greeting": "Hello, Ada!"}, resp.Data)
}

func TestGreet_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
		msg  string
	}{
		{"missing name", `{}`, ErrCodeSchema, `greet failed: missing field "name"`},
		{"wrong type", `{"name":7}`, ErrCodeSchema, "greet failed: type mismatch at name: expected string, found number"},
		{"malformed", `{"name":`, ErrCodeParse, "greet failed: parse error at offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewGreetCommand(&RootOptions{Format: "json"})
			cmd.SetOut(buf)
			cmd.SetArgs([]string{"--body", tt.body})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.msg)
		})
	}
}

func TestGreet_RejectsArgs(t *testing.T) {
	cmd := NewGreetCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"World"})

	require.Error(t, cmd.Execute())
}
