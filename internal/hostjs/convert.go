package hostjs

import (
	"fmt"
	"math/big"

	"github.com/dop251/goja"

	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/ir"
)

// MaxArrayLength bounds the length of a host array ToValue will convert.
// Array length is host-controlled and a sparse array can claim billions of
// slots without holding any.
const MaxArrayLength = 1 << 20

// ToValue converts a host value into an ir.Value.
//
// undefined and null become Null. ArrayBuffer and Uint8Array become an Array
// of byte Numbers. Plain objects keep their own enumerable keys in order.
// Functions, symbols and BigInts have no Value form and fail with a type
// mismatch, as do cyclic structures and arrays longer than MaxArrayLength.
func ToValue(rt *goja.Runtime, v goja.Value) (ir.Value, error) {
	c := &converter{rt: rt, visiting: make(map[*goja.Object]struct{})}
	return c.toValue(v, nil)
}

// converter tracks the objects on the current path so a cycle fails
// instead of recursing forever. Shared, acyclic references are fine.
type converter struct {
	rt       *goja.Runtime
	visiting map[*goja.Object]struct{}
}

func (c *converter) toValue(v goja.Value, path []string) (ir.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ir.Null{}, nil
	}
	if _, ok := v.(*goja.Symbol); ok {
		return nil, codec.NewTypeMismatch(path, "value", "symbol")
	}
	if _, ok := goja.AssertFunction(v); ok {
		return nil, codec.NewTypeMismatch(path, "value", "function")
	}

	switch x := v.Export().(type) {
	case bool:
		return ir.Bool(x), nil
	case int64:
		return ir.Number(x), nil
	case float64:
		return ir.Number(x), nil
	case string:
		return ir.String(x), nil
	case *big.Int:
		return nil, codec.NewTypeMismatch(path, "value", "bigint")
	case goja.ArrayBuffer:
		return byteArray(x.Bytes()), nil
	case []byte:
		return byteArray(x), nil
	}

	obj := v.ToObject(c.rt)
	if _, seen := c.visiting[obj]; seen {
		return nil, codec.NewTypeMismatch(path, "acyclic value", "cycle")
	}
	c.visiting[obj] = struct{}{}
	defer delete(c.visiting, obj)

	if obj.ClassName() == "Array" {
		return c.array(obj, path)
	}
	if constructorName(c.rt, obj) == "Uint8Array" {
		data, err := viewBytes(obj)
		if err != nil {
			return nil, codec.NewTypeMismatch(path, "byte array", err.Error())
		}
		return byteArray(data), nil
	}

	out := ir.NewObject()
	for _, k := range obj.Keys() {
		item, err := c.toValue(obj.Get(k), append(path, k))
		if err != nil {
			return nil, err
		}
		out.Set(k, item)
	}
	return out, nil
}

func (c *converter) array(obj *goja.Object, path []string) (ir.Value, error) {
	n := obj.Get("length").ToInteger()
	if n < 0 || n > MaxArrayLength {
		return nil, codec.NewTypeMismatch(path,
			fmt.Sprintf("array of at most %d elements", MaxArrayLength),
			fmt.Sprintf("length %d", n))
	}

	arr := make(ir.Array, n)
	for i := range arr {
		item, err := c.toValue(obj.Get(fmt.Sprint(i)), append(path, fmt.Sprintf("[%d]", i)))
		if err != nil {
			return nil, err
		}
		arr[i] = item
	}
	return arr, nil
}

// FromValue converts v into a host value. A nil v becomes undefined.
func FromValue(rt *goja.Runtime, v ir.Value) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Undefined()
	case ir.Null:
		return goja.Null()
	case ir.Bool:
		return rt.ToValue(bool(x))
	case ir.Number:
		return rt.ToValue(float64(x))
	case ir.String:
		return rt.ToValue(string(x))
	case ir.Array:
		items := make([]interface{}, len(x))
		for i, item := range x {
			items[i] = FromValue(rt, item)
		}
		return rt.NewArray(items...)
	case *ir.Object:
		obj := rt.NewObject()
		for _, m := range x.Members() {
			_ = obj.Set(m.Key, FromValue(rt, m.Value))
		}
		return obj
	default:
		return goja.Undefined()
	}
}

// Bytes returns a fresh Uint8Array holding a copy of data.
func Bytes(rt *goja.Runtime, data []byte) goja.Value {
	buf := make([]byte, len(data))
	copy(buf, data)

	ctor, ok := goja.AssertConstructor(rt.Get("Uint8Array"))
	if !ok {
		return rt.ToValue(rt.NewArrayBuffer(buf))
	}
	typed, err := ctor(nil, rt.ToValue(rt.NewArrayBuffer(buf)))
	if err != nil {
		panic(rt.NewGoError(fmt.Errorf("construct Uint8Array: %w", err)))
	}
	return typed
}

func byteArray(data []byte) ir.Array {
	arr := make(ir.Array, len(data))
	for i, b := range data {
		arr[i] = ir.Number(b)
	}
	return arr
}

// viewBytes returns the bytes a typed array view covers.
func viewBytes(obj *goja.Object) ([]byte, error) {
	bufferVal := obj.Get("buffer")
	if bufferVal == nil || goja.IsUndefined(bufferVal) || goja.IsNull(bufferVal) {
		return nil, fmt.Errorf("view without buffer")
	}
	ab, ok := bufferVal.Export().(goja.ArrayBuffer)
	if !ok {
		return nil, fmt.Errorf("view over non-ArrayBuffer")
	}

	offset := int(obj.Get("byteOffset").ToInteger())
	length := int(obj.Get("byteLength").ToInteger())
	data := ab.Bytes()
	if offset < 0 || length < 0 || offset+length > len(data) {
		return nil, fmt.Errorf("view out of range")
	}
	return data[offset : offset+length], nil
}

func constructorName(rt *goja.Runtime, obj *goja.Object) string {
	ctor := obj.Get("constructor")
	if ctor == nil || goja.IsUndefined(ctor) || goja.IsNull(ctor) {
		return ""
	}
	name := ctor.ToObject(rt).Get("name")
	if name == nil || goja.IsUndefined(name) || goja.IsNull(name) {
		return ""
	}
	return name.String()
}
