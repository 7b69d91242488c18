package marshal

import (
	"reflect"
	"testing"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/object"
)

type point struct {
	X int
	Y int
}

func (p *point) Sum() int { return p.X + p.Y }

func newMarshaler(t *testing.T) *Marshaler {
	t.Helper()
	reg := object.NewRegistry()
	if _, err := reg.Register("demo.Point", point{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return New(reg)
}

func TestToHost_NumericTargets(t *testing.T) {
	m := newMarshaler(t)

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		ok     bool
	}{
		{"int64 to int8 in range", int64(100), reflect.TypeOf(int8(0)), true},
		{"int64 to int8 overflow", int64(1000), reflect.TypeOf(int8(0)), false},
		{"int64 to float32", int64(7), reflect.TypeOf(float32(0)), true},
		{"float64 integral to int", float64(42), reflect.TypeOf(int(0)), true},
		{"float64 fractional to int", float64(42.5), reflect.TypeOf(int(0)), false},
		{"negative to uint", int64(-1), reflect.TypeOf(uint(0)), false},
		{"int64 to uint16", int64(65535), reflect.TypeOf(uint16(0)), true},
		{"int64 to uint16 overflow", int64(65536), reflect.TypeOf(uint16(0)), false},
		{"float64 to float64", float64(3.5), reflect.TypeOf(float64(0)), true},
		{"bool to int", true, reflect.TypeOf(int(0)), false},
		{"string to int", "5", reflect.TypeOf(int(0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rv, ok := m.ToHost(tt.value, tt.target)
			if ok != tt.ok {
				t.Fatalf("ToHost(%v, %s) ok = %v, want %v", tt.value, tt.target, ok, tt.ok)
			}
			if ok && rv.Type() != tt.target {
				t.Errorf("result type = %s, want %s", rv.Type(), tt.target)
			}
		})
	}
}

func TestToHost_TargetSpecific(t *testing.T) {
	m := newMarshaler(t)

	// The same script value converts per candidate target, not to one
	// canonical host type.
	v := int64(3)
	if rv, ok := m.ToHost(v, reflect.TypeOf(int32(0))); !ok || rv.Interface() != int32(3) {
		t.Error("int32 target failed")
	}
	if rv, ok := m.ToHost(v, reflect.TypeOf(float64(0))); !ok || rv.Interface() != float64(3) {
		t.Error("float64 target failed")
	}
}

func TestToHost_Nil(t *testing.T) {
	m := newMarshaler(t)

	if _, ok := m.ToHost(nil, reflect.TypeOf(0)); ok {
		t.Error("nil must not convert to int")
	}
	if rv, ok := m.ToHost(nil, reflect.TypeOf(&point{})); !ok || !rv.IsNil() {
		t.Error("nil should convert to nil pointer")
	}
	if _, ok := m.ToHost(nil, reflect.TypeOf([]int(nil))); !ok {
		t.Error("nil should convert to nil slice")
	}
}

func TestToHost_Sequence(t *testing.T) {
	m := newMarshaler(t)

	seq := []any{int64(1), int64(2), int64(3)}

	rv, ok := m.ToHost(seq, reflect.TypeOf([]int(nil)))
	if !ok {
		t.Fatal("sequence to []int failed")
	}
	if got := rv.Interface().([]int); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}

	// Per-element failure fails the whole conversion.
	if _, ok := m.ToHost([]any{int64(1), "x"}, reflect.TypeOf([]int(nil))); ok {
		t.Error("mixed sequence must not convert to []int")
	}

	// Arrays require exact length.
	if _, ok := m.ToHost(seq, reflect.TypeOf([2]int{})); ok {
		t.Error("length mismatch must fail")
	}
	if _, ok := m.ToHost(seq, reflect.TypeOf([3]int{})); !ok {
		t.Error("exact length array failed")
	}

	// Nested sequences convert recursively.
	nested := []any{[]any{int64(1)}, []any{int64(2)}}
	if _, ok := m.ToHost(nested, reflect.TypeOf([][]int(nil))); !ok {
		t.Error("nested sequence failed")
	}
}

func TestToHost_Mapping(t *testing.T) {
	m := newMarshaler(t)

	mv := map[string]any{"X": int64(1), "Y": int64(2)}

	// To a map type.
	rv, ok := m.ToHost(mv, reflect.TypeOf(map[string]int(nil)))
	if !ok {
		t.Fatal("mapping to map[string]int failed")
	}
	if got := rv.Interface().(map[string]int); got["X"] != 1 || got["Y"] != 2 {
		t.Errorf("got %v", got)
	}

	// To a struct by field name.
	rv, ok = m.ToHost(mv, reflect.TypeOf(point{}))
	if !ok {
		t.Fatal("mapping to struct failed")
	}
	if got := rv.Interface().(point); got.X != 1 || got.Y != 2 {
		t.Errorf("got %+v", got)
	}

	// To a pointer-to-struct.
	rv, ok = m.ToHost(mv, reflect.TypeOf(&point{}))
	if !ok || rv.Interface().(*point).X != 1 {
		t.Fatal("mapping to *struct failed")
	}

	// Unknown key fails the whole conversion.
	if _, ok := m.ToHost(map[string]any{"Nope": int64(1)}, reflect.TypeOf(point{})); ok {
		t.Error("unknown field must fail")
	}
}

func TestToHost_Object(t *testing.T) {
	m := newMarshaler(t)
	cls, _ := m.Registry().Lookup("demo.Point")
	obj := object.NewObject(cls, reflect.ValueOf(&point{X: 1, Y: 2}))

	// Pointer target.
	rv, ok := m.ToHost(obj, reflect.TypeOf(&point{}))
	if !ok || rv.Interface().(*point).X != 1 {
		t.Fatal("object to pointer failed")
	}

	// Value target dereferences.
	rv, ok = m.ToHost(obj, reflect.TypeOf(point{}))
	if !ok || rv.Interface().(point).Y != 2 {
		t.Fatal("object to value failed")
	}

	// Unrelated target fails.
	if _, ok := m.ToHost(obj, reflect.TypeOf(0)); ok {
		t.Error("object must not convert to int")
	}
}

func TestToHost_Callable(t *testing.T) {
	m := newMarshaler(t)

	cb := objlink.Callable(func(args ...any) (any, error) {
		return args[0].(int64) * 2, nil
	})

	rv, ok := m.ToHost(cb, reflect.TypeOf(func(int) int { return 0 }))
	if !ok {
		t.Fatal("callable to func failed")
	}
	fn := rv.Interface().(func(int) int)
	if got := fn(21); got != 42 {
		t.Errorf("fn(21) = %d", got)
	}
}

func TestToScript_FullRoundTrip(t *testing.T) {
	m := newMarshaler(t)

	// Structural round-trip for the script primitive and composite types.
	tests := []struct {
		name   string
		value  any
		target reflect.Type
	}{
		{"bool", true, reflect.TypeOf(false)},
		{"integer", int64(42), reflect.TypeOf(int64(0))},
		{"float", 2.5, reflect.TypeOf(float64(0))},
		{"string", "hello", reflect.TypeOf("")},
		{"sequence", []any{int64(1), int64(2)}, reflect.TypeOf([]int64(nil))},
		{"mapping", map[string]any{"a": int64(1)}, reflect.TypeOf(map[string]int64(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hostVal, ok := m.ToHost(tt.value, tt.target)
			if !ok {
				t.Fatalf("ToHost failed for %v", tt.value)
			}
			back := m.ToScript(hostVal.Interface(), ModeFull)
			if !reflect.DeepEqual(back, tt.value) {
				t.Errorf("round trip: got %#v, want %#v", back, tt.value)
			}
		})
	}
}

func TestToScript_Modes(t *testing.T) {
	m := newMarshaler(t)

	hostMap := map[string]int{"a": 1}

	// Full mode converts structurally.
	full := m.ToScript(hostMap, ModeFull)
	if got, ok := full.(map[string]any); !ok || got["a"] != int64(1) {
		t.Fatalf("full mode got %#v", full)
	}

	// Wrap mode mints a thin object.
	wrapped := m.ToScript(hostMap, ModeWrap)
	if _, ok := wrapped.(*object.Object); !ok {
		t.Fatalf("wrap mode got %T", wrapped)
	}

	// Primitives convert in both modes.
	if m.ToScript(7, ModeWrap) != int64(7) {
		t.Error("wrap mode should still convert primitives")
	}
}

func TestToScript_ClassReference(t *testing.T) {
	m := newMarshaler(t)

	v := m.ToScript(reflect.TypeOf(point{}), ModeFull)
	cls, ok := v.(*object.Class)
	if !ok {
		t.Fatalf("got %T, want *object.Class", v)
	}
	if cls.Name() != "demo.Point" {
		t.Errorf("class = %q, registered class should be reused", cls.Name())
	}
}

func TestToScript_StructWraps(t *testing.T) {
	m := newMarshaler(t)

	v := m.ToScript(&point{X: 3, Y: 4}, ModeFull)
	obj, ok := v.(*object.Object)
	if !ok {
		t.Fatalf("got %T, want *object.Object", v)
	}
	if obj.Class().Name() != "demo.Point" {
		t.Errorf("class = %q", obj.Class().Name())
	}
}

func TestToScript_HostFunc(t *testing.T) {
	m := newMarshaler(t)

	v := m.ToScript(func(a, b int) int { return a + b }, ModeFull)
	cb, ok := v.(objlink.Callable)
	if !ok {
		t.Fatalf("got %T, want Callable", v)
	}
	res, err := cb(int64(2), int64(3))
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if res != int64(5) {
		t.Errorf("res = %v", res)
	}
}

func TestToScript_UintOverflow(t *testing.T) {
	m := newMarshaler(t)

	v := m.ToScript(uint64(1)<<63, ModeFull)
	if _, ok := v.(float64); !ok {
		t.Fatalf("huge uint should degrade to float64, got %T", v)
	}
}
