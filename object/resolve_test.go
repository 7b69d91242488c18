package object

import (
	"reflect"
	"testing"
)

// shadow has a static field, an inner type, and methods all sharing names,
// to pin down resolution precedence.
type shadow struct{}

func (s *shadow) Ping() string { return "pong" }

func TestClass_ResolvePrecedence(t *testing.T) {
	r := NewRegistry()
	cls, err := r.Register("demo.Shadow", shadow{},
		WithStatic("Thing", int64(7)),
		WithInner("Thing", counter{}),
		WithStaticMethod("Thing", func() string { return "method" }),
		WithInner("Nested", gauge{}),
		WithStaticMethod("Make", func() string { return "made" }),
	)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Field always wins over same-named inner type and method.
	m := cls.Resolve("Thing")
	f, ok := m.(Field)
	if !ok {
		t.Fatalf("Resolve(Thing) = %T, want Field", m)
	}
	if f.Value != int64(7) {
		t.Errorf("field value = %v", f.Value)
	}

	// Inner type wins over method when no field shadows it.
	if _, ok := cls.Resolve("Nested").(InnerType); !ok {
		t.Error("Resolve(Nested) should be InnerType")
	}

	// Plain method name yields candidates.
	mc, ok := cls.Resolve("Make").(MethodCandidates)
	if !ok || len(mc.Methods) != 1 {
		t.Fatalf("Resolve(Make) = %#v", cls.Resolve("Make"))
	}

	// Unknown names resolve to an empty candidate set, never an error.
	mc, ok = cls.Resolve("DoesNotExist").(MethodCandidates)
	if !ok {
		t.Fatal("unknown name should resolve to MethodCandidates")
	}
	if len(mc.Methods) != 0 {
		t.Fatalf("expected empty candidate set, got %d", len(mc.Methods))
	}
}

func TestClass_ResolveNew(t *testing.T) {
	r := NewRegistry()
	cls, _ := r.Register("demo.Counter", counter{},
		WithConstructor(func() *counter { return &counter{} }),
		WithConstructor(newCounter),
	)

	mc, ok := cls.Resolve("new").(MethodCandidates)
	if !ok {
		t.Fatal("Resolve(new) should be MethodCandidates")
	}
	if len(mc.Methods) != 2 {
		t.Fatalf("constructor set size = %d", len(mc.Methods))
	}
	// Discovery order equals registration order.
	if len(mc.Methods[0].Params()) != 0 || len(mc.Methods[1].Params()) != 1 {
		t.Error("constructor discovery order not preserved")
	}
}

func TestObject_Resolve(t *testing.T) {
	r := NewRegistry()
	cls, _ := r.Register("demo.Counter", counter{})

	obj := NewObject(cls, reflect.ValueOf(&counter{N: 41}))

	// Instance field wins.
	f, ok := obj.Resolve("N").(Field)
	if !ok {
		t.Fatalf("Resolve(N) = %T, want Field", obj.Resolve("N"))
	}
	if f.Value != 41 {
		t.Errorf("field value = %v", f.Value)
	}

	// Instance methods come from the pointer method set.
	mc, ok := obj.Resolve("Add").(MethodCandidates)
	if !ok || len(mc.Methods) != 1 {
		t.Fatalf("Resolve(Add) = %#v", obj.Resolve("Add"))
	}
	if mc.Methods[0].Static() {
		t.Error("instance method marked static")
	}

	// Inner types are not instance-addressable: falls through to methods.
	if _, ok := obj.Resolve("Inner").(MethodCandidates); !ok {
		t.Error("inner types must not resolve on instances")
	}
}

func TestObject_ValueNormalization(t *testing.T) {
	r := NewRegistry()
	cls, _ := r.Register("demo.Counter", counter{})

	// A non-pointer value is copied into a fresh allocation so that
	// pointer-receiver methods work.
	obj := NewObject(cls, reflect.ValueOf(counter{N: 5}))
	if obj.Value().Kind() != reflect.Pointer {
		t.Fatal("stored value should be a pointer")
	}
	if obj.Value().Interface().(*counter).N != 5 {
		t.Fatal("value lost in normalization")
	}
}

func TestClass_ResolveSignature(t *testing.T) {
	r := NewRegistry()
	cls, _ := r.Register("demo.Calc", counter{},
		WithConstructor(newCounter),
		WithStaticMethod("Sum", func(a, b int) int { return a + b }),
		WithStaticMethod("Sum", func(a, b float64) float64 { return a + b }),
	)

	m, err := cls.ResolveSignature("Sum", "float64,float64", true)
	if err != nil {
		t.Fatalf("ResolveSignature failed: %v", err)
	}
	if m.Signature() != "float64,float64" {
		t.Errorf("Signature = %q", m.Signature())
	}

	if _, err := cls.ResolveSignature("Sum", "string", true); err == nil {
		t.Fatal("missing signature must fail immediately")
	}

	// "new" selects from the constructor set.
	if _, err := cls.ResolveSignature("new", "int", true); err != nil {
		t.Fatalf("constructor signature lookup failed: %v", err)
	}

	// Instance methods resolve with static=false.
	if _, err := cls.ResolveSignature("Add", "int", false); err != nil {
		t.Fatalf("instance signature lookup failed: %v", err)
	}
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in            string
		iface, method string
		ok            bool
	}{
		{"Greeter:Greet", "Greeter", "Greet", true},
		{"a.b.Iface:M", "a.b.Iface", "M", true},
		{"NoColon", "", "", false},
		{":M", "", "", false},
		{"Iface:", "", "", false},
	}
	for _, tt := range tests {
		iface, method, ok := SplitQualified(tt.in)
		if iface != tt.iface || method != tt.method || ok != tt.ok {
			t.Errorf("SplitQualified(%q) = %q, %q, %v", tt.in, iface, method, ok)
		}
	}
}

func TestMethod_SignatureRendering(t *testing.T) {
	r := NewRegistry()
	cls, _ := r.Register("demo.Sig", counter{},
		WithStaticMethod("F", func(a int, b string, c []float64) {}),
	)

	m := cls.StaticMethods("F")[0]
	if got := m.Signature(); got != "int,string,[]float64" {
		t.Errorf("Signature = %q", got)
	}
}
