package object

import (
	"reflect"

	"github.com/objlink/objlink/errors"
)

// DefaultMethod is a host-side default implementation carried by an
// interface. It receives the implementing object (usually a proxy) as self,
// followed by the call's script-side arguments.
type DefaultMethod func(self any, args ...any) (any, error)

// Interface is a named host interface: a method set plus optional default
// implementations. Proxies implement interfaces by forwarding into
// script-side handler tables; defaults fill the gaps.
type Interface struct {
	name      string
	methods   []string
	methodSet map[string]struct{}
	defaults  map[string]DefaultMethod
}

// Name returns the interface name.
func (i *Interface) Name() string { return i.name }

// Methods returns the method names in declaration order.
func (i *Interface) Methods() []string { return i.methods }

// Has reports whether name is in the interface's method set.
func (i *Interface) Has(name string) bool {
	_, ok := i.methodSet[name]
	return ok
}

// Default returns the default implementation for name, if declared.
func (i *Interface) Default(name string) (DefaultMethod, bool) {
	fn, ok := i.defaults[name]
	return fn, ok
}

type ifaceConfig struct {
	defaults map[string]DefaultMethod
}

// InterfaceOption configures interface registration.
type InterfaceOption func(*ifaceConfig)

// WithDefault attaches a default implementation to an interface method.
// A proxy whose handler table lacks the method falls back to the default.
func WithDefault(method string, fn DefaultMethod) InterfaceOption {
	return func(c *ifaceConfig) {
		if c.defaults == nil {
			c.defaults = make(map[string]DefaultMethod)
		}
		c.defaults[method] = fn
	}
}

// RegisterInterface registers a named interface with an explicit method
// list. Every default must name a declared method.
func (r *Registry) RegisterInterface(name string, methods []string, opts ...InterfaceOption) (*Interface, error) {
	if name == "" {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "interface name cannot be empty"))
	}
	if len(methods) == 0 {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "interface must declare at least one method"))
	}

	var cfg ifaceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	iface := &Interface{
		name:      name,
		methods:   append([]string(nil), methods...),
		methodSet: make(map[string]struct{}, len(methods)),
		defaults:  cfg.defaults,
	}
	for _, m := range methods {
		iface.methodSet[m] = struct{}{}
	}
	if iface.defaults == nil {
		iface.defaults = make(map[string]DefaultMethod)
	}
	for m := range iface.defaults {
		if !iface.Has(m) {
			return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "default for undeclared method "+m))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ifaces[name]; exists {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "interface already registered"))
	}
	r.ifaces[name] = iface
	return iface, nil
}

// RegisterInterfaceType derives the method list from a Go interface type.
// template is a pointer to the interface, e.g. (*io.Closer)(nil).
func (r *Registry) RegisterInterfaceType(name string, template any, opts ...InterfaceOption) (*Interface, error) {
	typ := reflect.TypeOf(template)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Interface {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "template is not an interface type"))
	}

	methods := make([]string, 0, typ.NumMethod())
	for i := 0; i < typ.NumMethod(); i++ {
		methods = append(methods, typ.Method(i).Name)
	}
	return r.RegisterInterface(name, methods, opts...)
}

// Interface returns a registered interface by name.
func (r *Registry) Interface(name string) (*Interface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	iface, ok := r.ifaces[name]
	return iface, ok
}

// Interfaces resolves every named interface or fails on the first missing
// one. Proxy creation requires all interfaces to resolve.
func (r *Registry) Interfaces(names ...string) ([]*Interface, error) {
	out := make([]*Interface, 0, len(names))
	for _, n := range names {
		iface, ok := r.Interface(n)
		if !ok {
			return nil, errors.NotFound(errors.StageResolve, "interface", n)
		}
		out = append(out, iface)
	}
	return out, nil
}
