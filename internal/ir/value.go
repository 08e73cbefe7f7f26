package ir

import (
	"fmt"
	"math"
)

// Value is a sealed interface over the closed set of host value variants.
// Only Null, Bool, Number, String, Array and *Object implement it.
type Value interface {
	// Kind names the variant, used in type mismatch messages.
	Kind() Kind

	irValue() // Sealed
}

// Kind identifies a Value variant.
type Kind string

const (
	KindNull   Kind = "null"
	KindBool   Kind = "bool"
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Null is the host's null (and undefined) value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) irValue()   {}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) irValue()   {}

// Number is a host number. Always float64; integers above 2^53 lose precision.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (Number) irValue()   {}

// IsInteger reports whether n holds an integral, finite value.
func (n Number) IsInteger() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

// String is a string value.
type String string

func (String) Kind() Kind { return KindString }
func (String) irValue()   {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (Array) irValue()   {}

// Member is a single key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a string-keyed mapping that remembers insertion order.
//
// The zero value is an empty object ready to use. Object is used through a
// pointer so Set can grow it in place.
type Object struct {
	members []Member
	index   map[string]int
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) irValue()   {}

// NewObject creates an object from members in order.
// Later duplicates replace earlier values but keep the first position.
func NewObject(members ...Member) *Object {
	obj := &Object{}
	for _, m := range members {
		obj.Set(m.Key, m.Value)
	}
	return obj
}

// M is shorthand for a Member.
// Example: NewObject(M("name", String("World")))
func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (o *Object) Set(key string, value Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.index == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Keys returns keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the members in insertion order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	out := make([]Member, len(o.members))
	copy(out, o.members)
	return out
}

// KindOf returns v's kind, reporting a nil Value as "undefined".
func KindOf(v Value) string {
	if v == nil {
		return "undefined"
	}
	return string(v.Kind())
}

// Equal reports whether a and b hold the same logical tree.
// Object comparison ignores member order; NaN never equals anything.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, m := range x.members {
			other, found := y.Get(m.Key)
			if !found || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch x := v.(type) {
	case Array:
		out := make(Array, len(x))
		for i, elem := range x {
			out[i] = Clone(elem)
		}
		return out
	case *Object:
		out := &Object{}
		for _, m := range x.members {
			out.Set(m.Key, Clone(m.Value))
		}
		return out
	default:
		return v
	}
}

// FromAny converts a generic Go tree into a Value.
// Accepts nil, bool, string, all integer and float kinds, []any,
// map[string]any (keys in sorted order, since maps have none) and Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Number(val), nil
	case int8:
		return Number(val), nil
	case int16:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint:
		return Number(val), nil
	case uint8:
		return Number(val), nil
	case uint16:
		return Number(val), nil
	case uint32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := &Object{}
		for _, k := range sortedKeys(val) {
			irElem, err := FromAny(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj.Set(k, irElem)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a Value into a generic Go tree of nil, bool, float64,
// string, []any and map[string]any.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case *Object:
		out := make(map[string]any, val.Len())
		for _, m := range val.members {
			out[m.Key] = ToAny(m.Value)
		}
		return out
	default:
		return nil
	}
}
