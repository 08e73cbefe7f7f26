package codec

import (
	"fmt"
	"reflect"

	"github.com/roach88/hostbridge/internal/ir"
)

// Union decodes and encodes a closed set of record variants selected by a
// string discriminant field.
//
// Example:
//
//	ops := codec.NewUnion[Operation]("operator").
//		Variant("print", Print{})
//	op, err := ops.Decode(v) // {"operator":"print","value":"a"} -> Print{Value: "a"}
//
// A Union is built once at startup and is read-only afterwards, so it is
// safe for concurrent use.
type Union[I any] struct {
	key    string
	tags   []string
	byTag  map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewUnion creates a union whose discriminant lives in member key.
func NewUnion[I any](key string) *Union[I] {
	return &Union[I]{
		key:    key,
		byTag:  make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Variant registers proto's concrete type under tag. Registering the same tag
// twice is a programming error and panics.
func (u *Union[I]) Variant(tag string, proto I) *Union[I] {
	t := reflect.TypeOf(proto)
	if t == nil {
		panic(fmt.Sprintf("codec: nil prototype for variant %q", tag))
	}
	if _, dup := u.byTag[tag]; dup {
		panic(fmt.Sprintf("codec: duplicate variant %q", tag))
	}
	u.tags = append(u.tags, tag)
	u.byTag[tag] = t
	u.byType[t] = tag
	return u
}

// Key returns the discriminant member name.
func (u *Union[I]) Key() string {
	return u.key
}

// Tags returns the registered tags in registration order.
func (u *Union[I]) Tags() []string {
	out := make([]string, len(u.tags))
	copy(out, u.tags)
	return out
}

// Decode reads the discriminant of v and decodes v into the matching variant.
func (u *Union[I]) Decode(v ir.Value) (I, error) {
	var zero I

	obj, ok := v.(*ir.Object)
	if !ok {
		return zero, NewTypeMismatch(nil, "object", ir.KindOf(v))
	}
	tv, ok := obj.Get(u.key)
	if !ok {
		return zero, NewMissingField([]string{u.key})
	}
	tag, ok := tv.(ir.String)
	if !ok {
		return zero, NewTypeMismatch([]string{u.key}, "string", ir.KindOf(tv))
	}
	t, ok := u.byTag[string(tag)]
	if !ok {
		return zero, NewUnknownVariant(u.key, string(tag))
	}

	out := reflect.New(t).Elem()
	if err := decodeValue(v, out, nil); err != nil {
		return zero, err
	}
	return out.Interface().(I), nil
}

// Encode emits x as an Object with the discriminant as its first member.
func (u *Union[I]) Encode(x I) (ir.Value, error) {
	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return nil, fmt.Errorf("codec: cannot encode nil variant for key %q", u.key)
	}
	tag, ok := u.byType[rv.Type()]
	if !ok {
		return nil, fmt.Errorf("codec: %s is not a registered variant for key %q", rv.Type(), u.key)
	}

	body, err := encodeValue(rv, nil)
	if err != nil {
		return nil, err
	}
	fields, ok := body.(*ir.Object)
	if !ok {
		return nil, fmt.Errorf("codec: variant %q must encode to an object, got %s", tag, ir.KindOf(body))
	}

	out := ir.NewObject(ir.M(u.key, ir.String(tag)))
	for _, m := range fields.Members() {
		if m.Key == u.key {
			continue
		}
		out.Set(m.Key, m.Value)
	}
	return out, nil
}
