package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Number(1.5)
	var _ Value = String("test")
	var _ Value = Array{String("a"), Number(1)}
	var _ Value = NewObject(M("key", String("value")))
}

func TestValueKinds(t *testing.T) {
	tests := []struct {
		value Value
		kind  Kind
	}{
		{Null{}, KindNull},
		{Bool(false), KindBool},
		{Number(0), KindNumber},
		{String(""), KindString},
		{Array{}, KindArray},
		{&Object{}, KindObject},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, string(tt.kind), KindOf(tt.value))
		})
	}

	assert.Equal(t, "undefined", KindOf(nil))
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	obj := NewObject(
		M("zebra", Number(1)),
		M("apple", Number(2)),
		M("mango", Number(3)),
	)

	assert.Equal(t, []string{"zebra", "apple", "mango"}, obj.Keys())
	assert.Equal(t, []string{"apple", "mango", "zebra"}, obj.SortedKeys())
}

func TestObjectSetExistingKeyKeepsPosition(t *testing.T) {
	obj := NewObject(M("a", Number(1)), M("b", Number(2)))
	obj.Set("a", String("replaced"))

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	got, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, String("replaced"), got)
	assert.Equal(t, 2, obj.Len())
}

func TestObjectZeroValue(t *testing.T) {
	var obj Object
	_, ok := obj.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, obj.Len())

	obj.Set("k", Null{})
	assert.Equal(t, 1, obj.Len())

	var nilObj *Object
	assert.Equal(t, 0, nilObj.Len())
	assert.Nil(t, nilObj.Keys())
}

func TestObjectMembersIsCopy(t *testing.T) {
	obj := NewObject(M("a", Number(1)))
	members := obj.Members()
	members[0].Value = Number(99)

	got, _ := obj.Get("a")
	assert.Equal(t, Number(1), got)
}

func TestNumberIsInteger(t *testing.T) {
	assert.True(t, Number(17).IsInteger())
	assert.True(t, Number(-3).IsInteger())
	assert.False(t, Number(1.5).IsInteger())
	assert.False(t, Number(math.NaN()).IsInteger())
	assert.False(t, Number(math.Inf(1)).IsInteger())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null{}, Null{}, true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"number", Number(2), Number(2), true},
		{"nan", Number(math.NaN()), Number(math.NaN()), false},
		{"string vs number", String("1"), Number(1), false},
		{"array", Array{Number(1), String("x")}, Array{Number(1), String("x")}, true},
		{"array order matters", Array{Number(1), Number(2)}, Array{Number(2), Number(1)}, false},
		{"array length", Array{Number(1)}, Array{}, false},
		{
			"object order ignored",
			NewObject(M("a", Number(1)), M("b", Number(2))),
			NewObject(M("b", Number(2)), M("a", Number(1))),
			true,
		},
		{
			"object value differs",
			NewObject(M("a", Number(1))),
			NewObject(M("a", Number(2))),
			false,
		},
		{
			"object key differs",
			NewObject(M("a", Number(1))),
			NewObject(M("b", Number(1))),
			false,
		},
		{"nil", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestClone(t *testing.T) {
	orig := NewObject(M("list", Array{NewObject(M("x", Number(1)))}))
	cp := Clone(orig).(*Object)

	list, _ := cp.Get("list")
	list.(Array)[0].(*Object).Set("x", Number(2))

	assert.False(t, Equal(orig, cp))
	origList, _ := orig.Get("list")
	x, _ := origList.(Array)[0].(*Object).Get("x")
	assert.Equal(t, Number(1), x)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"b":    []any{int64(1), uint8(2), 3.5, nil},
		"a":    true,
		"name": "x",
	})
	require.NoError(t, err)

	want := NewObject(
		M("a", Bool(true)),
		M("b", Array{Number(1), Number(2), Number(3.5), Null{}}),
		M("name", String("x")),
	)
	assert.True(t, Equal(want, v))
	// Maps have no order; keys come out sorted
	assert.Equal(t, []string{"a", "b", "name"}, v.(*Object).Keys())
}

func TestFromAnyRejectsUnsupported(t *testing.T) {
	_, err := FromAny(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["ch"]`)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestToAny(t *testing.T) {
	v := NewObject(
		M("n", Number(1)),
		M("list", Array{String("a"), Null{}}),
	)

	assert.Equal(t, map[string]any{
		"n":    float64(1),
		"list": []any{"a", nil},
	}, ToAny(v))
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"aa", "a", 1},
		{"a", "aa", -1},
		{"A", "a", -1},
		{"", "", 0},
		{"", "a", -1},
		// U+FF61 (BMP) sorts after U+1F600 (surrogate pair 0xD83D) in UTF-16
		{"\U0001F600", "｡", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			result := compareKeysRFC8785(tt.a, tt.b)
			switch {
			case tt.expected < 0:
				assert.Less(t, result, 0)
			case tt.expected > 0:
				assert.Greater(t, result, 0)
			default:
				assert.Equal(t, 0, result)
			}
		})
	}
}
