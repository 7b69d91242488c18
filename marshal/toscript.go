package marshal

import (
	"fmt"
	"math"
	"reflect"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/object"
)

// ToScript converts a host value to its script-side representation.
//
// Under ModeFull, maps and slices become native script composites
// recursively, host type references become classes, and functions become
// callables. Under ModeWrap everything non-primitive becomes a thin object
// reference. Round-tripping a script tree through ToHost and ToScript with
// ModeFull reproduces it structurally.
func (m *Marshaler) ToScript(v any, mode Mode) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *object.Object:
		return val
	case *object.Class:
		return val
	case reflect.Type:
		return m.reg.ClassOf(val)
	case objlink.Callable:
		return val
	case bool:
		return val
	case string:
		return val
	case int64:
		return val
	case float64:
		return val
	}

	return m.toScript(reflect.ValueOf(v), mode)
}

func (m *Marshaler) toScript(rv reflect.Value, mode Mode) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil

	case reflect.Bool:
		return rv.Bool()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u)
		}
		return int64(u)

	case reflect.Float32, reflect.Float64:
		return rv.Float()

	case reflect.String:
		return rv.String()

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return m.ToScript(rv.Elem().Interface(), mode)
	}

	if mode == ModeWrap {
		return m.wrap(rv)
	}

	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			var key string
			if k.Kind() == reflect.String {
				key = k.String()
			} else {
				key = fmt.Sprint(k.Interface())
			}
			out[key] = m.ToScript(iter.Value().Interface(), mode)
		}
		return out

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = m.ToScript(rv.Index(i).Interface(), mode)
		}
		return out

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return m.wrap(rv)
		}
		return m.toScript(rv.Elem(), mode)

	case reflect.Func:
		if rv.IsNil() {
			return nil
		}
		return m.funcToCallable(rv)
	}

	return m.wrap(rv)
}

// wrap mints a thin object reference without structural conversion.
func (m *Marshaler) wrap(rv reflect.Value) *object.Object {
	return object.NewObject(m.reg.ClassOf(rv.Type()), rv)
}

// funcToCallable exposes a host function value as a script callable.
// Arguments convert against the declared parameter types; a non-nil
// trailing error result becomes the callable's error.
func (m *Marshaler) funcToCallable(fv reflect.Value) objlink.Callable {
	ft := fv.Type()
	return func(args ...any) (any, error) {
		if len(args) != ft.NumIn() {
			return nil, fmt.Errorf("host function expects %d argument(s), got %d", ft.NumIn(), len(args))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			rv, ok := m.ToHost(a, ft.In(i))
			if !ok {
				return nil, fmt.Errorf("argument %d does not convert to %s", i+1, ft.In(i))
			}
			in[i] = rv
		}

		var out []reflect.Value
		if ft.IsVariadic() {
			out = fv.CallSlice(in)
		} else {
			out = fv.Call(in)
		}

		numOut := ft.NumOut()
		if numOut > 0 && ft.Out(numOut-1) == errorType {
			if errv := out[numOut-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
			out = out[:numOut-1]
		}

		switch len(out) {
		case 0:
			return nil, nil
		case 1:
			return m.ToScript(out[0].Interface(), ModeFull), nil
		default:
			results := make([]any, len(out))
			for i, rv := range out {
				results[i] = m.ToScript(rv.Interface(), ModeFull)
			}
			return results, nil
		}
	}
}
