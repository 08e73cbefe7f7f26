package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, content string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return s
}

func TestRun_OperationsPass(t *testing.T) {
	s := mustParse(t, `
name: ops
description: d
operations:
  - {operator: print, value: a}
  - {operator: print, value: b}
expect:
  stdout: "a\nb\n"
  callbacks: 0
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "a\nb\n", result.Stdout)
	assert.Empty(t, result.Error)
}

func TestRun_OperationsExpectedFailure(t *testing.T) {
	s := mustParse(t, `
name: ops_fail
description: d
operations:
  - {operator: print, value: a}
  - {operator: bogus}
expect:
  stdout: "a\n"
  error: "unsupported operator: bogus"
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "unsupported operator: bogus", result.Error)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: d
operations:
  - {operator: bogus}
expect:
  stdout: "never\n"
  callbacks: 2
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		`stdout: expected "never\n", got ""`,
		"unexpected error: unsupported operator: bogus",
		"callbacks: expected 2, got 0",
	}, result.Errors)
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := mustParse(t, `
name: no_error
description: d
operations: []
expect:
  error: "boom"
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{`expected error "boom", run succeeded`}, result.Errors)
}

func TestRun_WrongErrorMessage(t *testing.T) {
	s := mustParse(t, `
name: wrong_error
description: d
operations:
  - {operator: bogus}
expect:
  error: "unsupported operator: other"
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		`error: expected "unsupported operator: other", got "unsupported operator: bogus"`,
	}, result.Errors)
}

func TestRun_Script(t *testing.T) {
	s := mustParse(t, `
name: script
description: d
script: |
  const hb = require("hostbridge");
  hb.scheduleTask((err, v) => console.log(v));
  hb.scheduleTask((err, v) => console.log(v));
expect:
  stdout: "17\n17\n"
  callbacks: 2
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(2), result.Callbacks)
}

func TestRun_ScriptTimeout(t *testing.T) {
	s := mustParse(t, `
name: forever
description: d
script: |
  const hb = require("hostbridge");
  const em = new hb.EventEmitter();
  const again = () => em.poll(again);
  again();
`)

	h := New(WithTimeout(50 * time.Millisecond))
	_, err := h.Run(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
