package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hostbridge/internal/ir"
)

type helloRequest struct {
	Name string `json:"name"`
}

type profile struct {
	Name     string            `json:"name"`
	Age      int               `json:"age"`
	Tags     []string          `json:"tags"`
	Nickname *string           `json:"nickname"`
	Score    float64           `json:"score,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
	Active   bool
	internal string
}

type payload struct {
	Body []byte `json:"body"`
}

func mustParse(t *testing.T, s string) ir.Value {
	t.Helper()
	v, err := ir.ParseString(s)
	require.NoError(t, err)
	return v
}

func TestDecodeHelloRequest(t *testing.T) {
	got, err := Decode[helloRequest](mustParse(t, `{"name":"World"}`))
	require.NoError(t, err)
	assert.Equal(t, helloRequest{Name: "World"}, got)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	got, err := Decode[helloRequest](mustParse(t, `{"name":"World","extra":[1,2],"nested":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "World", got.Name)
}

func TestDecodeFullRecord(t *testing.T) {
	v := mustParse(t, `{
		"ACTIVE": true,
		"name": "ada",
		"age": 36,
		"tags": ["math", "engines"],
		"nickname": "countess",
		"score": 9.5,
		"extra": {"born": "1815"}
	}`)

	got, err := Decode[profile](v)
	require.NoError(t, err)

	require.NotNil(t, got.Nickname)
	assert.Equal(t, "countess", *got.Nickname)
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, 36, got.Age)
	assert.Equal(t, []string{"math", "engines"}, got.Tags)
	assert.Equal(t, 9.5, got.Score)
	assert.Equal(t, map[string]string{"born": "1815"}, got.Extra)
	assert.True(t, got.Active, "untagged field matches case-insensitively")
}

func TestDecodeOptionalFields(t *testing.T) {
	got, err := Decode[profile](mustParse(t, `{"name":"a","age":1,"tags":[],"Active":false,"nickname":null}`))
	require.NoError(t, err)
	assert.Nil(t, got.Nickname)
	assert.Zero(t, got.Score)
	assert.Nil(t, got.Extra)
	assert.Equal(t, []string{}, got.Tags)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		check   func(error) bool
		message string
	}{
		{
			name:    "missing name",
			input:   `{}`,
			check:   IsMissingField,
			message: `missing field "name"`,
		},
		{
			name:    "name wrong type",
			input:   `{"name":42}`,
			check:   IsTypeMismatch,
			message: "type mismatch at name: expected string, found number",
		},
		{
			name:    "name null",
			input:   `{"name":null}`,
			check:   IsTypeMismatch,
			message: "type mismatch at name: expected string, found null",
		},
		{
			name:    "not an object",
			input:   `["name"]`,
			check:   IsTypeMismatch,
			message: "type mismatch: expected object, found array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[helloRequest](mustParse(t, tt.input))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, helloRequest{}, got)
		})
	}
}

func TestDecodeNestedPaths(t *testing.T) {
	type item struct {
		ID int `json:"id"`
	}
	type batch struct {
		Items []item `json:"items"`
	}

	_, err := Decode[batch](mustParse(t, `{"items":[{"id":1},{"id":"two"}]}`))
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindTypeMismatch, se.Kind)
	assert.Equal(t, []string{"items", "[1]", "id"}, se.Path)
	assert.Equal(t, "items[1].id", se.Field())
	assert.Equal(t, "integer", se.Expected)
	assert.Equal(t, "string", se.Found)

	_, err = Decode[batch](mustParse(t, `{"items":[{}]}`))
	assert.EqualError(t, err, `missing field "items[0].id"`)
}

func TestDecodeIntegers(t *testing.T) {
	type counts struct {
		Small int8   `json:"small"`
		Count uint32 `json:"count"`
	}

	got, err := Decode[counts](mustParse(t, `{"small":-5,"count":17}`))
	require.NoError(t, err)
	assert.Equal(t, counts{Small: -5, Count: 17}, got)

	tests := []struct {
		name  string
		input string
	}{
		{"fraction", `{"small":1.5,"count":1}`},
		{"overflow", `{"small":300,"count":1}`},
		{"negative unsigned", `{"small":1,"count":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[counts](mustParse(t, tt.input))
			require.Error(t, err)
			assert.True(t, IsTypeMismatch(err))
		})
	}
}

func TestDecodeBytes(t *testing.T) {
	got, err := Decode[payload](mustParse(t, `{"body":[123,125]}`))
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got.Body)

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"string is not bytes", `{"body":"{}"}`, "type mismatch at body: expected byte array, found string"},
		{"out of range", `{"body":[1,256]}`, "type mismatch at body[1]: expected byte, found number 256"},
		{"fraction", `{"body":[0.5]}`, "type mismatch at body[0]: expected byte, found number 0.5"},
		{"not a number", `{"body":[true]}`, "type mismatch at body[0]: expected byte, found bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[payload](mustParse(t, tt.input))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestDecodeIntoIsAtomic(t *testing.T) {
	dst := profile{Name: "keep", Age: 7}

	err := DecodeInto(mustParse(t, `{"name":"new","age":"old"}`), &dst)
	require.Error(t, err)
	assert.Equal(t, "keep", dst.Name, "failed decode must not touch dst")
	assert.Equal(t, 7, dst.Age)

	err = DecodeInto(mustParse(t, `{"name":"new","age":8,"tags":[],"Active":true}`), &dst)
	require.NoError(t, err)
	assert.Equal(t, "new", dst.Name)
	assert.Equal(t, 8, dst.Age)
}

func TestDecodeIntoRequiresPointer(t *testing.T) {
	var dst helloRequest
	assert.Error(t, DecodeInto(ir.Null{}, dst))
	assert.Error(t, DecodeInto(ir.Null{}, (*helloRequest)(nil)))
}

func TestDecodeValueFields(t *testing.T) {
	type envelope struct {
		Kind string   `json:"kind"`
		Data ir.Value `json:"data"`
		Any  any      `json:"any,omitempty"`
	}

	got, err := Decode[envelope](mustParse(t, `{"kind":"x","data":{"b":1,"a":[true]},"any":[1,"s"]}`))
	require.NoError(t, err)
	assert.Equal(t, "x", got.Kind)
	assert.Equal(t, []string{"b", "a"}, got.Data.(*ir.Object).Keys())
	assert.Equal(t, []any{float64(1), "s"}, got.Any)
}

func TestEncode(t *testing.T) {
	type response struct {
		Greeting string `json:"greeting"`
	}

	v, err := Encode(response{Greeting: "Hello, World!"})
	require.NoError(t, err)

	text, err := ir.Render(v)
	require.NoError(t, err)
	assert.Equal(t, `{"greeting":"Hello, World!"}`, text)
}

func TestEncodeShapes(t *testing.T) {
	nick := "n"
	v, err := Encode(profile{
		Name:     "ada",
		Age:      36,
		Nickname: &nick,
		Extra:    map[string]string{"z": "1", "a": "2"},
		internal: "hidden",
	})
	require.NoError(t, err)

	text, err := ir.Render(v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"ada","age":36,"tags":[],"nickname":"n","extra":{"a":"2","z":"1"},"Active":false}`, text)
}

func TestEncodeBytes(t *testing.T) {
	v, err := Encode(payload{Body: []byte{1, 255}})
	require.NoError(t, err)

	body, _ := v.(*ir.Object).Get("body")
	assert.Equal(t, ir.Array{ir.Number(1), ir.Number(255)}, body)
}

func TestEncodeUnsupported(t *testing.T) {
	type bad struct {
		Fn func() `json:"fn"`
	}

	_, err := Encode(bad{Fn: func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at fn")

	assert.Panics(t, func() { MustEncode(make(chan int)) })
}

func TestEncodePassesValuesThrough(t *testing.T) {
	obj := ir.NewObject(ir.M("k", ir.String("v")))
	v, err := Encode(obj)
	require.NoError(t, err)
	assert.Same(t, obj, v)

	v, err = Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, v)
}

func TestRoundTripDecodeEncode(t *testing.T) {
	type inner struct {
		Flag bool `json:"flag"`
	}
	type record struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Ratio float64  `json:"ratio"`
		Items []inner  `json:"items"`
		Raw   []byte   `json:"raw"`
		Note  *string  `json:"note"`
		Data  ir.Value `json:"data"`
	}

	v := mustParse(t, `{"name":"x","count":3,"ratio":0.5,"items":[{"flag":true}],"raw":[0,1,2],"note":"n","data":{"q":[null]}}`)

	rec, err := Decode[record](v)
	require.NoError(t, err)

	back, err := Encode(rec)
	require.NoError(t, err)
	assert.True(t, ir.Equal(v, back))

	again, err := Decode[record](back)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}
