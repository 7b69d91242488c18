package marshal

import (
	"fmt"
	"reflect"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/object"
)

// ToHost attempts to convert a script value to the given candidate
// parameter type. The conversion either fully succeeds or fully fails;
// it never raises. A false result tells the dispatcher to move on to the
// next candidate.
func (m *Marshaler) ToHost(v any, target reflect.Type) (reflect.Value, bool) {
	if target == nil {
		return reflect.Value{}, false
	}

	if hc, ok := v.(HostConvertible); ok {
		return hc.ConvertToHost(target)
	}

	if v == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(target), true
		}
		return reflect.Value{}, false
	}

	switch val := v.(type) {
	case *object.Object:
		return m.objectToHost(val, target)

	case *object.Class:
		if target == reflectTypeType {
			return reflect.ValueOf(val.Type()), true
		}
		if isAny(target) {
			return reflect.ValueOf(val), true
		}
		return reflect.Value{}, false

	case bool:
		if target.Kind() == reflect.Bool {
			return reflect.ValueOf(val).Convert(target), true
		}
		if isAny(target) {
			return reflect.ValueOf(val), true
		}
		return reflect.Value{}, false

	case string:
		if target.Kind() == reflect.String {
			return reflect.ValueOf(val).Convert(target), true
		}
		if isAny(target) {
			return reflect.ValueOf(val), true
		}
		return reflect.Value{}, false

	case objlink.Callable:
		if target.Kind() == reflect.Func {
			return m.callableToFunc(val, target), true
		}
		if isAny(target) {
			return reflect.ValueOf(val), true
		}
		return reflect.Value{}, false

	case []any:
		return m.sequenceToHost(val, target)

	case map[string]any:
		return m.mappingToHost(val, target)
	}

	if isNumeric(v) {
		if rv, ok := coerceNumeric(v, target); ok {
			return rv, true
		}
		if isAny(target) {
			return reflect.ValueOf(v), true
		}
		return reflect.Value{}, false
	}

	// Foreign host values passed through the script side unchanged.
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, true
	}
	return reflect.Value{}, false
}

func (m *Marshaler) objectToHost(o *object.Object, target reflect.Type) (reflect.Value, bool) {
	ov := o.Value()
	if ov.Type().AssignableTo(target) {
		return ov, true
	}
	if ov.Elem().Type().AssignableTo(target) {
		return ov.Elem(), true
	}
	return reflect.Value{}, false
}

func (m *Marshaler) sequenceToHost(seq []any, target reflect.Type) (reflect.Value, bool) {
	switch target.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(target, len(seq), len(seq))
		for i, elem := range seq {
			ev, ok := m.ToHost(elem, target.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(ev)
		}
		return out, true

	case reflect.Array:
		if target.Len() != len(seq) {
			return reflect.Value{}, false
		}
		out := reflect.New(target).Elem()
		for i, elem := range seq {
			ev, ok := m.ToHost(elem, target.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(ev)
		}
		return out, true

	case reflect.Interface:
		if isAny(target) {
			return reflect.ValueOf(seq), true
		}
	}
	return reflect.Value{}, false
}

func (m *Marshaler) mappingToHost(mv map[string]any, target reflect.Type) (reflect.Value, bool) {
	switch target.Kind() {
	case reflect.Map:
		if target.Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		out := reflect.MakeMapWithSize(target, len(mv))
		for k, elem := range mv {
			ev, ok := m.ToHost(elem, target.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), ev)
		}
		return out, true

	case reflect.Struct:
		out := reflect.New(target).Elem()
		if !m.fillStruct(out, mv) {
			return reflect.Value{}, false
		}
		return out, true

	case reflect.Pointer:
		if target.Elem().Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		out := reflect.New(target.Elem())
		if !m.fillStruct(out.Elem(), mv) {
			return reflect.Value{}, false
		}
		return out, true

	case reflect.Interface:
		if isAny(target) {
			return reflect.ValueOf(mv), true
		}
	}
	return reflect.Value{}, false
}

// fillStruct sets struct fields from mapping keys. Every key must name an
// exported field and convert; unnamed fields keep their zero value.
func (m *Marshaler) fillStruct(out reflect.Value, mv map[string]any) bool {
	t := out.Type()
	for k, elem := range mv {
		f, ok := t.FieldByName(k)
		if !ok || !f.IsExported() {
			return false
		}
		ev, converted := m.ToHost(elem, f.Type)
		if !converted {
			return false
		}
		out.FieldByIndex(f.Index).Set(ev)
	}
	return true
}

// callableToFunc builds a host function value that forwards into a script
// callable. Arguments convert with full semantics on the way out; the
// result converts back against the function's declared types. A script
// error maps to the function's trailing error result when it has one, and
// panics otherwise so the dispatcher's capture path sees it.
func (m *Marshaler) callableToFunc(cb objlink.Callable, target reflect.Type) reflect.Value {
	return reflect.MakeFunc(target, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, rv := range in {
			args[i] = m.ToScript(rv.Interface(), ModeFull)
		}

		res, err := cb(args...)

		numOut := target.NumOut()
		hasErr := numOut > 0 && target.Out(numOut-1) == errorType
		out := make([]reflect.Value, numOut)
		for i := range out {
			out[i] = reflect.Zero(target.Out(i))
		}

		if err != nil {
			if !hasErr {
				panic(err)
			}
			out[numOut-1] = reflect.ValueOf(err)
			return out
		}

		valueOuts := numOut
		if hasErr {
			valueOuts--
		}
		if valueOuts >= 1 {
			rv, ok := m.ToHost(res, target.Out(0))
			if !ok {
				panic(fmt.Errorf("callable result %v does not convert to %s", res, target.Out(0)))
			}
			out[0] = rv
		}
		return out
	})
}
