package proxy

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/errors"
	"github.com/objlink/objlink/marshal"
	"github.com/objlink/objlink/object"
	"github.com/objlink/objlink/sched"
)

// Table is a script-side handler table: method name to implementation.
type Table map[string]objlink.Callable

// Proxy is a script-backed implementation of one or more host interfaces.
// Method calls are forwarded to the handler table, then to interface
// defaults, and fail only at invocation time when neither exists.
type Proxy struct {
	ifaces    []*object.Interface
	table     Table
	ctx       *sched.Context
	marshaler *marshal.Marshaler
}

// Interfaces returns the implemented interface descriptors.
func (p *Proxy) Interfaces() []*object.Interface { return p.ifaces }

// Context returns the execution context that owns the handler table.
func (p *Proxy) Context() *sched.Context { return p.ctx }

// Implements reports whether any implemented interface declares name.
func (p *Proxy) Implements(name string) bool {
	for _, iface := range p.ifaces {
		if iface.Has(name) {
			return true
		}
	}
	return false
}

// Method returns a callable bound to name. Resolution never fails here:
// a name with no handler and no default still yields a callable, and the
// call itself reports the unimplemented method.
func (p *Proxy) Method(name string) objlink.Callable {
	return func(args ...any) (any, error) {
		return p.Invoke(name, args...)
	}
}

// Invoke dispatches one method call. The handler table wins over
// interface defaults; defaults are consulted in interface declaration
// order. The proxy itself is prepended as self.
func (p *Proxy) Invoke(name string, args ...any) (any, error) {
	if handler, ok := p.table[name]; ok {
		return handler(prepend(p, args)...)
	}
	for _, iface := range p.ifaces {
		if fn, ok := iface.Default(name); ok {
			return fn(p, args...)
		}
	}
	return nil, errors.UnimplementedProxy(name)
}

// InvokeDefault calls an interface's default implementation directly,
// bypassing the handler table. This backs qualified "Iface:method" calls,
// which let a handler delegate to the default it overrides.
func (p *Proxy) InvokeDefault(ifaceName, method string, args ...any) (any, error) {
	for _, iface := range p.ifaces {
		if iface.Name() != ifaceName {
			continue
		}
		if fn, ok := iface.Default(method); ok {
			return fn(p, args...)
		}
		return nil, errors.UnimplementedProxy(ifaceName + ":" + method)
	}
	return nil, errors.NotFound(errors.StageProxy, "interface", ifaceName)
}

// Unwrap returns the underlying handler table. The caller's context must
// be the one the proxy was created in; handler tables never migrate
// between execution contexts.
func (p *Proxy) Unwrap(ctx *sched.Context) (Table, error) {
	if ctx != p.ctx {
		return nil, errors.InvalidContext("proxy belongs to a different execution context")
	}
	return p.table, nil
}

// ConvertToHost lets proxies flow into host call parameters. Any empty
// interface target takes the proxy itself. A func-typed target is served
// when the implemented method set collapses to a single name, bridging
// the wide-functional-interface case through the marshaler.
func (p *Proxy) ConvertToHost(target reflect.Type) (reflect.Value, bool) {
	switch target.Kind() {
	case reflect.Interface:
		if target.NumMethod() == 0 {
			return reflect.ValueOf(p), true
		}
	case reflect.Func:
		if name, ok := p.soleMethod(); ok {
			return p.marshaler.ToHost(p.Method(name), target)
		}
	}
	return reflect.Value{}, false
}

// soleMethod returns the single method name when the union of all
// implemented interfaces declares exactly one.
func (p *Proxy) soleMethod() (string, bool) {
	var name string
	for _, iface := range p.ifaces {
		for _, m := range iface.Methods() {
			if name != "" && m != name {
				return "", false
			}
			name = m
		}
	}
	return name, name != ""
}

func prepend(self any, args []any) []any {
	out := make([]any, 0, len(args)+1)
	out = append(out, self)
	return append(out, args...)
}

// Factory creates proxies over a class registry. Creation is
// deduplicating: the same handler table, interface set, and context yield
// the same proxy instance, so host-side identity checks hold.
type Factory struct {
	reg       *object.Registry
	marshaler *marshal.Marshaler
	logger    *zap.Logger

	mu       sync.Mutex
	bindings map[bindingKey]*Proxy
}

type bindingKey struct {
	table  uintptr
	ifaces string
	ctx    *sched.Context
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory builds a proxy factory over the marshaler's registry.
func NewFactory(m *marshal.Marshaler, opts ...Option) *Factory {
	f := &Factory{
		reg:       m.Registry(),
		marshaler: m,
		logger:    zap.NewNop(),
		bindings:  make(map[bindingKey]*Proxy),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New creates a proxy implementing every named interface. handlers is
// either a Table or a single callable; the callable form is accepted only
// when the combined method set collapses to one name. Every interface
// must resolve or creation fails.
func (f *Factory) New(ctx *sched.Context, handlers any, ifaceNames ...string) (*Proxy, error) {
	if len(ifaceNames) == 0 {
		return nil, errors.InvalidInput(errors.StageProxy, "proxy requires at least one interface")
	}
	ifaces, err := f.reg.Interfaces(ifaceNames...)
	if err != nil {
		return nil, err
	}

	var table Table
	switch h := handlers.(type) {
	case Table:
		table = h
	case map[string]objlink.Callable:
		table = h
	case objlink.Callable:
		name, ok := soleMethodOf(ifaces)
		if !ok {
			return nil, errors.InvalidInput(errors.StageProxy, "bare callable needs a single-method interface set")
		}
		table = Table{name: h}
	case func(args ...any) (any, error):
		return f.New(ctx, objlink.Callable(h), ifaceNames...)
	default:
		return nil, errors.TypeMismatch(errors.StageProxy, nil, reflect.TypeOf(handlers).String(), "handler table or callable")
	}

	key := bindingKey{
		table:  reflect.ValueOf(table).Pointer(),
		ifaces: ifaceKey(ifaces),
		ctx:    ctx,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.bindings[key]; ok {
		return p, nil
	}
	p := &Proxy{
		ifaces:    ifaces,
		table:     table,
		ctx:       ctx,
		marshaler: f.marshaler,
	}
	f.bindings[key] = p
	f.logger.Debug("proxy created",
		zap.String("interfaces", key.ifaces),
		zap.Int("handlers", len(table)),
	)
	return p, nil
}

func soleMethodOf(ifaces []*object.Interface) (string, bool) {
	p := Proxy{ifaces: ifaces}
	return p.soleMethod()
}

func ifaceKey(ifaces []*object.Interface) string {
	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Name()
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
