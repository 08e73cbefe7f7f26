package ir

import (
	"fmt"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode for deterministic encoding.
// Canonical mode sorts map keys, so CBOR does not keep Object insertion order.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// MarshalCBOR encodes v as canonical CBOR. Integral numbers are encoded as
// CBOR integers, everything else as floats.
func MarshalCBOR(v Value) ([]byte, error) {
	tree, err := toCBORTree(v)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(tree)
}

// UnmarshalCBOR decodes CBOR into a Value. Byte strings become arrays of
// byte numbers, the same shape the codec uses for []byte fields.
func UnmarshalCBOR(data []byte) (Value, error) {
	var raw any
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ir: unmarshal cbor: %w", err)
	}
	return fromCBORTree(raw)
}

func toCBORTree(v Value) (any, error) {
	switch val := v.(type) {
	case Null:
		return nil, nil
	case Bool:
		return bool(val), nil
	case Number:
		f := float64(val)
		// -0 stays a float; CBOR integers have no negative zero.
		negZero := f == 0 && math.Signbit(f)
		if val.IsInteger() && math.Abs(f) <= 1<<53 && !negZero {
			return int64(f), nil
		}
		return f, nil
	case String:
		return string(val), nil
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			e, err := toCBORTree(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	case *Object:
		out := make(map[string]any, val.Len())
		for _, m := range val.Members() {
			e, err := toCBORTree(m.Value)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", m.Key, err)
			}
			out[m.Key] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot encode %s value", KindOf(v))
	}
}

func fromCBORTree(raw any) (Value, error) {
	switch val := raw.(type) {
	case []byte:
		arr := make(Array, len(val))
		for i, b := range val {
			arr[i] = Number(b)
		}
		return arr, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := fromCBORTree(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := &Object{}
		for _, k := range sortedKeys(val) {
			e, err := fromCBORTree(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj.Set(k, e)
		}
		return obj, nil
	default:
		return FromAny(raw)
	}
}
