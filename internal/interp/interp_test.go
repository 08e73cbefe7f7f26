package interp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/ir"
)

func mustParse(t *testing.T, s string) ir.Value {
	t.Helper()
	v, err := ir.ParseString(s)
	require.NoError(t, err)
	return v
}

func TestRun_PrintsInOrder(t *testing.T) {
	var out bytes.Buffer
	in := New(&out)

	err := in.Run(mustParse(t, `[{"operator":"print","value":"a"},{"operator":"print","value":"b"}]`))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out.String())
}

func TestRun_UnsupportedOperatorStopsBatch(t *testing.T) {
	var out bytes.Buffer
	in := New(&out)

	err := in.Run(mustParse(t, `[
		{"operator":"print","value":"a"},
		{"operator":"bogus","value":"b"},
		{"operator":"print","value":"c"}
	]`))
	require.Error(t, err)

	assert.Equal(t, "a\n", out.String(), "effects before the failure stay, later ones never run")
	assert.True(t, IsUnsupportedOperator(err))
	assert.EqualError(t, err, "unsupported operator: bogus")

	var ue *UnsupportedOperatorError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "bogus", ue.Tag)
	assert.Equal(t, 1, ue.Index)
}

func TestRun_EmptyBatch(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New(&out).Run(ir.Array{}))
	assert.Empty(t, out.String())
}

func TestRun_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		check   func(error) bool
		message string
	}{
		{
			name:    "batch is not an array",
			input:   `{"operator":"print","value":"a"}`,
			check:   codec.IsTypeMismatch,
			message: "type mismatch: expected array, found object",
		},
		{
			name:    "missing value",
			input:   `[{"operator":"print","value":"a"},{"operator":"print"}]`,
			check:   codec.IsMissingField,
			message: `operation 1: missing field "value"`,
		},
		{
			name:    "value wrong type",
			input:   `[{"operator":"print","value":7}]`,
			check:   codec.IsTypeMismatch,
			message: "operation 0: type mismatch at value: expected string, found number",
		},
		{
			name:    "missing operator",
			input:   `[{"value":"a"}]`,
			check:   codec.IsMissingField,
			message: `operation 0: missing field "operator"`,
		},
		{
			name:    "descriptor not an object",
			input:   `["print"]`,
			check:   codec.IsTypeMismatch,
			message: "operation 0: type mismatch: expected object, found string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := New(&out).Run(mustParse(t, tt.input))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.False(t, IsUnsupportedOperator(err))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestRun_DisabledOperator(t *testing.T) {
	var out bytes.Buffer
	in := New(&out, WithOperators())

	assert.Empty(t, in.Operators())

	err := in.Run(mustParse(t, `[{"operator":"print","value":"a"}]`))
	require.Error(t, err)
	assert.EqualError(t, err, "unsupported operator: print")
	assert.Empty(t, out.String())
}

func TestWithOperators_IgnoresUnknownTags(t *testing.T) {
	in := New(&bytes.Buffer{}, WithOperators("print", "shout"))
	assert.Equal(t, []string{"print"}, in.Operators())
}

func TestRunDescriptors(t *testing.T) {
	var out bytes.Buffer
	ops := []ir.Value{
		ir.NewObject(ir.M("operator", ir.String("print")), ir.M("value", ir.String("x"))),
		ir.NewObject(ir.M("value", ir.String("y")), ir.M("operator", ir.String("print"))),
	}

	require.NoError(t, New(&out).RunDescriptors(ops))
	assert.Equal(t, "x\ny\n", out.String())
}

func TestCheck_CollectsEveryInvalidDescriptor(t *testing.T) {
	var out bytes.Buffer
	in := New(&out)

	errs := in.Check(mustParse(t, `[
		{"operator":"print","value":"a"},
		{"operator":"bogus"},
		{"operator":"print"},
		{"operator":"print","value":"d"}
	]`))

	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], "unsupported operator: bogus")
	assert.True(t, IsUnsupportedOperator(errs[0]))
	assert.EqualError(t, errs[1], `operation 2: missing field "value"`)
	assert.Empty(t, out.String(), "Check never executes")
}

func TestCheck(t *testing.T) {
	assert.Empty(t, New(&bytes.Buffer{}).Check(mustParse(t, `[{"operator":"print","value":"a"}]`)))

	errs := New(&bytes.Buffer{}).Check(ir.String("nope"))
	require.Len(t, errs, 1)
	assert.True(t, codec.IsTypeMismatch(errs[0]))

	errs = New(&bytes.Buffer{}, WithOperators()).Check(mustParse(t, `[{"operator":"print","value":"a"}]`))
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "unsupported operator: print")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteFailure(t *testing.T) {
	err := New(failingWriter{}).Run(mustParse(t, `[{"operator":"print","value":"a"}]`))
	assert.EqualError(t, err, "operation 0: disk full")
}

func TestOperations_Encode(t *testing.T) {
	v, err := Operations.Encode(Print{Value: "hi"})
	require.NoError(t, err)

	text, err := ir.Render(v)
	require.NoError(t, err)
	assert.Equal(t, `{"operator":"print","value":"hi"}`, text)
}
