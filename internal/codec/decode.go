package codec

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/hostbridge/internal/ir"
)

var valueType = reflect.TypeOf((*ir.Value)(nil)).Elem()

// Decode maps v onto a new T. On failure the zero T is returned.
//
// Example:
//
//	req, err := codec.Decode[HelloRequest](v)
func Decode[T any](v ir.Value) (T, error) {
	var out T
	if err := decodeValue(v, reflect.ValueOf(&out).Elem(), nil); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeInto maps v onto the value dst points to. dst is only written when
// the whole decode succeeds.
func DecodeInto(v ir.Value, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("codec: DecodeInto requires a non-nil pointer")
	}

	tmp := reflect.New(rv.Elem().Type()).Elem()
	if err := decodeValue(v, tmp, nil); err != nil {
		return err
	}
	rv.Elem().Set(tmp)
	return nil
}

func decodeValue(v ir.Value, dst reflect.Value, path []string) error {
	t := dst.Type()

	// ir.Value fields take the subtree as is
	if t == valueType {
		if v == nil {
			v = ir.Null{}
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	}
	if t.Implements(valueType) {
		if v != nil && reflect.TypeOf(v) == t {
			dst.Set(reflect.ValueOf(v))
			return nil
		}
		want := reflect.Zero(t).Interface().(ir.Value).Kind()
		return NewTypeMismatch(path, string(want), ir.KindOf(v))
	}

	if t.Kind() == reflect.Pointer {
		if _, isNull := v.(ir.Null); isNull || v == nil {
			dst.SetZero()
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := decodeValue(v, elem.Elem(), path); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.(ir.Bool)
		if !ok {
			return NewTypeMismatch(path, "bool", ir.KindOf(v))
		}
		dst.SetBool(bool(b))

	case reflect.String:
		s, ok := v.(ir.String)
		if !ok {
			return NewTypeMismatch(path, "string", ir.KindOf(v))
		}
		dst.SetString(string(s))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := decodeInteger(v, path)
		if err != nil {
			return err
		}
		if n < math.MinInt64 || n >= math.MaxInt64 || dst.OverflowInt(int64(n)) {
			return NewTypeMismatch(path, t.Kind().String(), "number out of range")
		}
		dst.SetInt(int64(n))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := decodeInteger(v, path)
		if err != nil {
			return err
		}
		if n < 0 || n >= math.MaxUint64 || dst.OverflowUint(uint64(n)) {
			return NewTypeMismatch(path, t.Kind().String(), "number out of range")
		}
		dst.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		n, ok := v.(ir.Number)
		if !ok {
			return NewTypeMismatch(path, "number", ir.KindOf(v))
		}
		dst.SetFloat(float64(n))

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return decodeBytes(v, dst, path)
		}
		arr, ok := v.(ir.Array)
		if !ok {
			return NewTypeMismatch(path, "array", ir.KindOf(v))
		}
		out := reflect.MakeSlice(t, len(arr), len(arr))
		for i, elem := range arr {
			if err := decodeValue(elem, out.Index(i), appendPath(path, fmt.Sprintf("[%d]", i))); err != nil {
				return err
			}
		}
		dst.Set(out)

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("codec: unsupported map key type %s", t.Key())
		}
		obj, ok := v.(*ir.Object)
		if !ok {
			return NewTypeMismatch(path, "object", ir.KindOf(v))
		}
		out := reflect.MakeMapWithSize(t, obj.Len())
		for _, m := range obj.Members() {
			elem := reflect.New(t.Elem()).Elem()
			if err := decodeValue(m.Value, elem, appendPath(path, m.Key)); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(m.Key).Convert(t.Key()), elem)
		}
		dst.Set(out)

	case reflect.Struct:
		return decodeStruct(v, dst, path)

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fmt.Errorf("codec: unsupported interface type %s", t)
		}
		if v == nil {
			dst.SetZero()
			return nil
		}
		if generic := ir.ToAny(v); generic != nil {
			dst.Set(reflect.ValueOf(generic))
		} else {
			dst.SetZero()
		}

	default:
		return fmt.Errorf("codec: unsupported Go type %s", t)
	}
	return nil
}

func decodeStruct(v ir.Value, dst reflect.Value, path []string) error {
	obj, ok := v.(*ir.Object)
	if !ok {
		return NewTypeMismatch(path, "object", ir.KindOf(v))
	}

	for _, f := range structFields(dst.Type()) {
		member, found := lookupMember(obj, f)
		fieldPath := appendPath(path, f.name)

		if !found {
			if f.optional {
				continue
			}
			return NewMissingField(fieldPath)
		}
		if _, isNull := member.(ir.Null); isNull && f.optional {
			continue
		}
		if err := decodeValue(member, dst.Field(f.index), fieldPath); err != nil {
			return err
		}
	}
	return nil
}

// lookupMember finds the member for f: exact key first, then (for untagged
// fields) a case-insensitive match on the Go field name.
func lookupMember(obj *ir.Object, f fieldInfo) (ir.Value, bool) {
	if v, ok := obj.Get(f.name); ok {
		return v, true
	}
	if f.tagged {
		return nil, false
	}
	for _, m := range obj.Members() {
		if strings.EqualFold(m.Key, f.name) {
			return m.Value, true
		}
	}
	return nil, false
}

func decodeInteger(v ir.Value, path []string) (float64, error) {
	n, ok := v.(ir.Number)
	if !ok {
		return 0, NewTypeMismatch(path, "integer", ir.KindOf(v))
	}
	if !n.IsInteger() {
		return 0, NewTypeMismatch(path, "integer", "fractional number")
	}
	return float64(n), nil
}

// decodeBytes decodes an Array of byte-sized integers. Strings are rejected:
// byte fields are raw data, never text.
func decodeBytes(v ir.Value, dst reflect.Value, path []string) error {
	arr, ok := v.(ir.Array)
	if !ok {
		return NewTypeMismatch(path, "byte array", ir.KindOf(v))
	}

	out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
	for i, elem := range arr {
		n, ok := elem.(ir.Number)
		if !ok || !n.IsInteger() || n < 0 || n > 255 {
			found := ir.KindOf(elem)
			if ok {
				found = fmt.Sprintf("number %v", float64(n))
			}
			return NewTypeMismatch(appendPath(path, fmt.Sprintf("[%d]", i)), "byte", found)
		}
		out.Index(i).SetUint(uint64(n))
	}
	dst.Set(out)
	return nil
}

// appendPath returns path+elem without sharing the caller's backing array.
func appendPath(path []string, elem string) []string {
	return append(path[:len(path):len(path)], elem)
}
