package codec

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/hostbridge/internal/ir"
)

// Encode maps a Go value onto an ir.Value.
//
// Structs become Objects with members in field declaration order; maps
// become Objects with sorted keys. The only failures are Go kinds the model
// cannot hold (chan, func, complex, unsafe.Pointer), which are programming
// errors rather than data errors.
func Encode(v any) (ir.Value, error) {
	return encodeValue(reflect.ValueOf(v), nil)
}

// MustEncode is Encode for values whose types are known to be encodable.
// It panics on error.
func MustEncode(v any) ir.Value {
	out, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return out
}

func encodeValue(rv reflect.Value, path []string) (ir.Value, error) {
	if !rv.IsValid() {
		return ir.Null{}, nil
	}

	t := rv.Type()
	if t.Kind() != reflect.Interface && t.Implements(valueType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return ir.Null{}, nil
		}
		return rv.Interface().(ir.Value), nil
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return ir.Null{}, nil
		}
		return encodeValue(rv.Elem(), path)

	case reflect.Bool:
		return ir.Bool(rv.Bool()), nil

	case reflect.String:
		return ir.String(rv.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.Number(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ir.Number(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return ir.Number(rv.Float()), nil

	case reflect.Slice, reflect.Array:
		arr := make(ir.Array, rv.Len())
		for i := range arr {
			elem, err := encodeValue(rv.Index(i), appendPath(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			arr[i] = elem
		}
		return arr, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, encodeError(path, t)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)

		obj := &ir.Object{}
		for _, k := range keys {
			elem, err := encodeValue(rv.MapIndex(reflect.ValueOf(k).Convert(t.Key())), appendPath(path, k))
			if err != nil {
				return nil, err
			}
			obj.Set(k, elem)
		}
		return obj, nil

	case reflect.Struct:
		obj := &ir.Object{}
		for _, f := range structFields(t) {
			fv := rv.Field(f.index)
			if f.optional && fv.IsZero() {
				continue
			}
			elem, err := encodeValue(fv, appendPath(path, f.name))
			if err != nil {
				return nil, err
			}
			obj.Set(f.name, elem)
		}
		return obj, nil

	default:
		return nil, encodeError(path, t)
	}
}

func encodeError(path []string, t reflect.Type) error {
	if len(path) == 0 {
		return fmt.Errorf("codec: cannot encode Go type %s", t)
	}
	return fmt.Errorf("codec: cannot encode Go type %s at %s", t, formatPath(path))
}
