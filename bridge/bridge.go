package bridge

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/array"
	"github.com/objlink/objlink/dispatch"
	"github.com/objlink/objlink/errors"
	"github.com/objlink/objlink/extension"
	"github.com/objlink/objlink/handles"
	"github.com/objlink/objlink/marshal"
	"github.com/objlink/objlink/object"
	"github.com/objlink/objlink/proxy"
	"github.com/objlink/objlink/sched"
)

// Bridge is the boundary facade: every operation a script runtime invokes
// against the host object system goes through here. It owns the class
// registry, the marshaler, the dispatcher, the proxy factory, the handle
// table, and the execution context registry, wired to share one throwable
// slot and one logger.
type Bridge struct {
	reg        *object.Registry
	marshaler  *marshal.Marshaler
	dispatcher *dispatch.Dispatcher
	proxies    *proxy.Factory
	handles    *handles.Table
	contexts   *sched.Registry
	logger     *zap.Logger
}

// Option configures a Bridge.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	thrown    *dispatch.ThrownSlot
	mainState any
}

// WithLogger sets the logger shared by all bridge components. Defaults to
// a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithThrownSlot injects the throwable slot, mostly for tests that assert
// on captured host throwables.
func WithThrownSlot(s *dispatch.ThrownSlot) Option {
	return func(o *options) {
		if s != nil {
			o.thrown = s
		}
	}
}

// WithMainState associates the root script execution state with the main
// context, so Acquire on that state finds it.
func WithMainState(state any) Option {
	return func(o *options) {
		o.mainState = state
	}
}

// New assembles a bridge over the given class registry.
func New(reg *object.Registry, opts ...Option) *Bridge {
	o := options{
		logger: zap.NewNop(),
		thrown: dispatch.NewThrownSlot(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := marshal.New(reg)
	return &Bridge{
		reg:       reg,
		marshaler: m,
		dispatcher: dispatch.New(m,
			dispatch.WithThrownSlot(o.thrown),
			dispatch.WithLogger(o.logger),
		),
		proxies:  proxy.NewFactory(m, proxy.WithLogger(o.logger)),
		handles:  handles.NewTable(),
		contexts: sched.NewRegistry(o.mainState, sched.WithLogger(o.logger)),
		logger:   o.logger,
	}
}

// Registry returns the class registry.
func (b *Bridge) Registry() *object.Registry { return b.reg }

// Marshaler returns the value marshaler.
func (b *Bridge) Marshaler() *marshal.Marshaler { return b.marshaler }

// Handles returns the cross-runtime handle table.
func (b *Bridge) Handles() *handles.Table { return b.handles }

// Contexts returns the execution context registry.
func (b *Bridge) Contexts() *sched.Registry { return b.contexts }

// Main returns the root execution context.
func (b *Bridge) Main() *sched.Context { return b.contexts.Main() }

// Import resolves a registered class name, or a "prefix.*" wildcard into
// a lazy package table.
func (b *Bridge) Import(name string) (any, error) {
	v, err := b.reg.Import(name)
	if err != nil {
		b.logger.Debug("import failed", zap.String("name", name))
		return nil, err
	}
	return v, nil
}

// NewInstance constructs an instance of class, dispatching args over the
// constructor candidate set. The result is pinned to ctx: detaching the
// context releases the script's reference.
func (b *Bridge) NewInstance(ctx *sched.Context, class any, args ...any) (*object.Object, error) {
	cls, err := b.classOf(class)
	if err != nil {
		return nil, err
	}

	res, err := b.dispatcher.Invoke(nil, object.ConstructorName, cls.Constructors(), args)
	if err != nil {
		return nil, err
	}
	obj, ok := res.(*object.Object)
	if !ok {
		// Constructors returning bare primitives still cross as values.
		obj = object.NewObject(cls, reflect.ValueOf(res))
	}
	b.pin(ctx, obj)
	return obj, nil
}

// Access resolves name on target and returns its script-side value.
// Fields yield their converted value, inner types yield classes, and
// methods yield a bound callable. Proxy targets always yield a callable.
// An unknown method name also yields a callable; the failure surfaces at
// call time.
func (b *Bridge) Access(target any, name string) (any, error) {
	switch tgt := target.(type) {
	case *proxy.Proxy:
		return tgt.Method(name), nil

	case *object.Object:
		switch m := tgt.Resolve(name).(type) {
		case object.Field:
			return b.marshaler.ToScript(m.Value, marshal.ModeFull), nil
		case object.MethodCandidates:
			return b.bindInstance(tgt, m), nil
		}

	case *object.Class:
		switch m := tgt.Resolve(name).(type) {
		case object.Field:
			return b.marshaler.ToScript(m.Value, marshal.ModeFull), nil
		case object.InnerType:
			return m.Class, nil
		case object.MethodCandidates:
			return b.bindStatic(m), nil
		}
	}
	return nil, errors.TypeMismatch(errors.StageResolve, []string{name},
		fmt.Sprintf("%T", target), "object, class, or proxy")
}

// Method resolves name on target to a callable. Unlike Access it rejects
// non-method members, and it honors an explicit signature to pick one
// overload. Qualified "Iface:method" names on proxies bind the
// interface's default implementation directly.
func (b *Bridge) Method(target any, name, signature string) (objlink.Callable, error) {
	if p, ok := target.(*proxy.Proxy); ok {
		if iface, method, qualified := object.SplitQualified(name); qualified {
			return func(args ...any) (any, error) {
				return p.InvokeDefault(iface, method, args...)
			}, nil
		}
		return p.Method(name), nil
	}

	switch tgt := target.(type) {
	case *object.Object:
		if signature != "" {
			m, err := tgt.Class().ResolveSignature(name, signature, false)
			if err != nil {
				return nil, err
			}
			return b.bindInstance(tgt, object.MethodCandidates{Name: name, Methods: []*object.Method{m}}), nil
		}
		if cands, ok := tgt.Resolve(name).(object.MethodCandidates); ok {
			return b.bindInstance(tgt, cands), nil
		}

	case *object.Class:
		if signature != "" {
			m, err := tgt.ResolveSignature(name, signature, true)
			if err != nil {
				return nil, err
			}
			return b.bindStatic(object.MethodCandidates{Name: name, Methods: []*object.Method{m}}), nil
		}
		if cands, ok := tgt.Resolve(name).(object.MethodCandidates); ok {
			return b.bindStatic(cands), nil
		}
	default:
		return nil, errors.TypeMismatch(errors.StageResolve, []string{name},
			fmt.Sprintf("%T", target), "object, class, or proxy")
	}
	return nil, errors.NotFound(errors.StageResolve, "method", name)
}

// Assign writes a script value into an exported field of obj, converting
// it against the field's declared type.
func (b *Bridge) Assign(obj *object.Object, name string, value any) error {
	elem := obj.Value().Elem()
	if elem.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.StageResolve, []string{name},
			obj.Class().Name(), "struct-backed object")
	}
	field := elem.FieldByName(name)
	if !field.IsValid() || !field.CanSet() {
		return errors.NotFound(errors.StageResolve, "field", name)
	}
	rv, ok := b.marshaler.ToHost(value, field.Type())
	if !ok {
		return errors.TypeMismatch(errors.StageConvert, []string{name},
			fmt.Sprintf("%T", value), field.Type().String())
	}
	field.Set(rv)
	return nil
}

// Proxy creates a script-backed implementation of the named interfaces in
// ctx. handlers is a handler table or, for single-method interface sets, a
// bare callable.
func (b *Bridge) Proxy(ctx *sched.Context, handlers any, ifaces ...string) (*proxy.Proxy, error) {
	return b.proxies.New(ctx, handlers, ifaces...)
}

// Unwrap returns the handler table behind a proxy. Only the proxy's own
// context may unwrap it.
func (b *Bridge) Unwrap(ctx *sched.Context, v any) (any, error) {
	p, ok := v.(*proxy.Proxy)
	if !ok {
		return nil, errors.TypeMismatch(errors.StageProxy, nil,
			fmt.Sprintf("%T", v), "proxy")
	}
	table, err := p.Unwrap(ctx)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// NewArray allocates a fixed-shape host array. elem is a class, a class
// name, or a reflect.Type.
func (b *Bridge) NewArray(elem any, dims ...int) (*array.Array, error) {
	var typ reflect.Type
	switch e := elem.(type) {
	case *object.Class:
		typ = e.Type()
	case reflect.Type:
		typ = e
	case string:
		cls, ok := b.reg.Lookup(e)
		if !ok {
			return nil, errors.NotFound(errors.StageArray, "class", e)
		}
		typ = cls.Type()
	default:
		return nil, errors.InvalidInput(errors.StageArray,
			fmt.Sprintf("element must be a class or type, got %T", elem))
	}
	return array.New(b.marshaler, typ, dims...)
}

// ToScriptValue converts a wrapped object into a native script value:
// struct-backed objects become mappings of their exported fields,
// collection-backed objects become sequences or mappings. Values that are
// already script-native pass through.
func (b *Bridge) ToScriptValue(v any) any {
	obj, ok := v.(*object.Object)
	if !ok {
		return b.marshaler.ToScript(v, marshal.ModeFull)
	}

	elem := obj.Value().Elem()
	if elem.Kind() == reflect.Struct {
		out := make(map[string]any, elem.NumField())
		t := elem.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			out[f.Name] = b.marshaler.ToScript(elem.Field(i).Interface(), marshal.ModeFull)
		}
		return out
	}
	return b.marshaler.ToScript(elem.Interface(), marshal.ModeFull)
}

// Catched returns the most recently captured host throwable as a script
// value, or nil when no host call has failed since the last capture was
// cleared. Each failing host call overwrites the previous throwable.
// Error throwables come back as thin object references so the script side
// can hold and re-raise them; primitive panic values convert directly.
func (b *Bridge) Catched() any {
	thrown, ok := b.dispatcher.Thrown().Latest()
	if !ok {
		return nil
	}
	return b.marshaler.ToScript(thrown, marshal.ModeWrap)
}

// AcquireContext returns the context tracking state, registering it on
// first sight.
func (b *Bridge) AcquireContext(state any) *sched.Context {
	return b.contexts.Acquire(state)
}

// Detach releases a script execution context and every handle pinned to
// it. The main context cannot be detached, and a second detach fails.
func (b *Bridge) Detach(ctx *sched.Context) error {
	return b.contexts.Detach(ctx)
}

// LoadModule resolves a registered class's static method as a module
// opener, following the script runtime's searcher protocol.
func (b *Bridge) LoadModule(className, methodName string) (objlink.Callable, string) {
	return extension.LoadModule(b.dispatcher, className, methodName)
}

// Close releases the handle table and everything it still roots.
func (b *Bridge) Close() error {
	return b.handles.Close()
}

// bindInstance closes over a receiver and candidate set.
func (b *Bridge) bindInstance(obj *object.Object, cands object.MethodCandidates) objlink.Callable {
	return func(args ...any) (any, error) {
		return b.dispatcher.Invoke(obj, cands.Name, cands.Methods, args)
	}
}

// bindStatic closes over a static candidate set.
func (b *Bridge) bindStatic(cands object.MethodCandidates) objlink.Callable {
	return func(args ...any) (any, error) {
		return b.dispatcher.Invoke(nil, cands.Name, cands.Methods, args)
	}
}

// classOf accepts a class reference or a registered class name.
func (b *Bridge) classOf(class any) (*object.Class, error) {
	switch c := class.(type) {
	case *object.Class:
		return c, nil
	case string:
		cls, ok := b.reg.Lookup(c)
		if !ok {
			return nil, errors.NotFound(errors.StageResolve, "class", c)
		}
		return cls, nil
	}
	return nil, errors.InvalidInput(errors.StageResolve,
		fmt.Sprintf("class must be a name or class reference, got %T", class))
}

// pin exports obj into the handle table on behalf of ctx and releases the
// script reference when the context detaches.
func (b *Bridge) pin(ctx *sched.Context, obj *object.Object) {
	h, err := b.handles.Export(obj)
	if err != nil {
		return
	}
	if ctx == nil {
		ctx = b.contexts.Main()
	}
	if !ctx.Main() {
		ctx.OnDetach(func() {
			b.handles.Release(h, handles.SideScript)
		})
	}
}
