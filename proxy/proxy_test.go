package proxy

import (
	goerrors "errors"
	"reflect"
	"testing"

	"github.com/objlink/objlink"
	oerrors "github.com/objlink/objlink/errors"
	"github.com/objlink/objlink/marshal"
	"github.com/objlink/objlink/object"
	"github.com/objlink/objlink/sched"
)

func newFactory(t *testing.T) (*Factory, *sched.Registry) {
	t.Helper()
	reg := object.NewRegistry()

	_, err := reg.RegisterInterface("demo.Greeter", []string{"Greet", "Farewell"},
		object.WithDefault("Farewell", func(self any, args ...any) (any, error) {
			return "goodbye", nil
		}),
	)
	if err != nil {
		t.Fatalf("register interface: %v", err)
	}
	if _, err := reg.RegisterInterface("demo.Runner", []string{"Run"}); err != nil {
		t.Fatalf("register interface: %v", err)
	}

	return NewFactory(marshal.New(reg)), sched.NewRegistry(nil)
}

func kindOf(t *testing.T, err error) oerrors.Kind {
	t.Helper()
	var oerr *oerrors.Error
	if !goerrors.As(err, &oerr) {
		t.Fatalf("got %T, want *errors.Error: %v", err, err)
	}
	return oerr.Kind
}

func TestFactory_New(t *testing.T) {
	f, s := newFactory(t)

	table := Table{
		"Greet": func(args ...any) (any, error) { return "hello", nil },
	}
	p, err := f.New(s.Main(), table, "demo.Greeter")
	if err != nil {
		t.Fatalf("new proxy: %v", err)
	}
	if !p.Implements("Greet") || p.Implements("Run") {
		t.Error("implemented method set wrong")
	}

	// Unknown interfaces fail creation eagerly.
	if _, err := f.New(s.Main(), table, "demo.Nope"); err == nil {
		t.Fatal("unknown interface should fail")
	}
	if _, err := f.New(s.Main(), nil); err == nil {
		t.Fatal("empty interface list should fail")
	}
}

func TestProxy_InvokeHandler(t *testing.T) {
	f, s := newFactory(t)

	var self any
	table := Table{
		"Greet": func(args ...any) (any, error) {
			self = args[0]
			return "hi " + args[1].(string), nil
		},
	}
	p, _ := f.New(s.Main(), table, "demo.Greeter")

	res, err := p.Invoke("Greet", "bob")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res != "hi bob" {
		t.Errorf("res = %v", res)
	}
	if self != p {
		t.Error("handler should receive the proxy as self")
	}
}

func TestProxy_DefaultFallback(t *testing.T) {
	f, s := newFactory(t)
	p, _ := f.New(s.Main(), Table{}, "demo.Greeter")

	// No handler entry, but the interface carries a default.
	res, err := p.Invoke("Farewell")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res != "goodbye" {
		t.Errorf("res = %v", res)
	}

	// A handler entry shadows the default.
	p2, _ := f.New(s.Main(), Table{
		"Farewell": func(args ...any) (any, error) { return "later", nil },
	}, "demo.Greeter")
	if res, _ := p2.Invoke("Farewell"); res != "later" {
		t.Errorf("handler should win over default, got %v", res)
	}
}

func TestProxy_MethodNeverFailsToResolve(t *testing.T) {
	f, s := newFactory(t)
	p, _ := f.New(s.Main(), Table{}, "demo.Greeter")

	// Lookup of an arbitrary name yields a callable; only the call fails.
	cb := p.Method("TotallyMissing")
	if cb == nil {
		t.Fatal("Method must always return a callable")
	}
	_, err := cb()
	if kindOf(t, err) != oerrors.KindUnimplementedProxy {
		t.Fatalf("kind = %v, want unimplemented_proxy_method", kindOf(t, err))
	}
}

func TestProxy_InvokeDefault(t *testing.T) {
	f, s := newFactory(t)

	// The handler overrides Farewell but can still reach the default.
	table := Table{
		"Farewell": func(args ...any) (any, error) { return "later", nil },
	}
	p, _ := f.New(s.Main(), table, "demo.Greeter")

	res, err := p.InvokeDefault("demo.Greeter", "Farewell")
	if err != nil {
		t.Fatalf("invoke default: %v", err)
	}
	if res != "goodbye" {
		t.Errorf("res = %v, want the default, not the handler", res)
	}

	_, err = p.InvokeDefault("demo.Greeter", "Greet")
	if kindOf(t, err) != oerrors.KindUnimplementedProxy {
		t.Error("method without default should be unimplemented")
	}
	_, err = p.InvokeDefault("demo.Runner", "Run")
	if kindOf(t, err) != oerrors.KindNotFound {
		t.Error("unimplemented interface should be not found")
	}
}

func TestProxy_BareCallable(t *testing.T) {
	f, s := newFactory(t)

	cb := objlink.Callable(func(args ...any) (any, error) { return "ran", nil })

	// A single-method interface set accepts a bare callable.
	p, err := f.New(s.Main(), cb, "demo.Runner")
	if err != nil {
		t.Fatalf("new proxy: %v", err)
	}
	if res, _ := p.Invoke("Run"); res != "ran" {
		t.Error("bare callable should back the sole method")
	}

	// A multi-method set does not.
	if _, err := f.New(s.Main(), cb, "demo.Greeter"); err == nil {
		t.Fatal("multi-method interface should reject a bare callable")
	}
}

func TestFactory_Dedup(t *testing.T) {
	f, s := newFactory(t)

	table := Table{
		"Greet": func(args ...any) (any, error) { return nil, nil },
	}
	p1, _ := f.New(s.Main(), table, "demo.Greeter")
	p2, _ := f.New(s.Main(), table, "demo.Greeter")
	if p1 != p2 {
		t.Error("same table, interfaces, and context should dedup")
	}

	// A different context or table breaks the binding.
	other := s.Acquire(&struct{ n int }{})
	p3, _ := f.New(other, table, "demo.Greeter")
	if p3 == p1 {
		t.Error("different context must mint a different proxy")
	}
	p4, _ := f.New(s.Main(), Table{
		"Greet": func(args ...any) (any, error) { return nil, nil },
	}, "demo.Greeter")
	if p4 == p1 {
		t.Error("different table must mint a different proxy")
	}
}

func TestProxy_Unwrap(t *testing.T) {
	f, s := newFactory(t)

	table := Table{
		"Greet": func(args ...any) (any, error) { return nil, nil },
	}
	p, _ := f.New(s.Main(), table, "demo.Greeter")

	got, err := p.Unwrap(s.Main())
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if reflect.ValueOf(got).Pointer() != reflect.ValueOf(table).Pointer() {
		t.Error("unwrap should return the original table")
	}

	// Cross-context unwrap fails.
	other := s.Acquire(&struct{ n int }{})
	_, err = p.Unwrap(other)
	if kindOf(t, err) != oerrors.KindInvalidContext {
		t.Fatal("cross-context unwrap should fail")
	}
}

func TestProxy_ConvertToHostFunc(t *testing.T) {
	f, s := newFactory(t)

	p, _ := f.New(s.Main(), Table{
		"Run": func(args ...any) (any, error) { return args[1].(int64) + 1, nil },
	}, "demo.Runner")

	// Functional interface set converts to a func-typed parameter.
	rv, ok := p.ConvertToHost(reflect.TypeOf(func(int) int { return 0 }))
	if !ok {
		t.Fatal("functional proxy should convert to func target")
	}
	fn := rv.Interface().(func(int) int)
	if got := fn(41); got != 42 {
		t.Errorf("fn(41) = %d", got)
	}

	// Any empty interface target takes the proxy itself.
	rv, ok = p.ConvertToHost(reflect.TypeOf((*any)(nil)).Elem())
	if !ok || rv.Interface() != any(p) {
		t.Error("any target should take the proxy")
	}

	// Non-functional proxies refuse func targets.
	g, _ := f.New(s.Main(), Table{}, "demo.Greeter")
	if _, ok := g.ConvertToHost(reflect.TypeOf(func() {})); ok {
		t.Error("multi-method proxy must not convert to func")
	}
}
