package object

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Class is an opaque reference to a host-side type: a registered Go type
// plus its statics, inner classes, and constructor/method candidate sets.
// A Class is immutable once built and shared by all callers.
type Class struct {
	name          string
	typ           reflect.Type
	statics       map[string]any
	inner         map[string]*Class
	ctors         []*Method
	methods       map[string][]*Method
	staticMethods map[string][]*Method
}

// Name returns the fully qualified dotted class name.
func (c *Class) Name() string { return c.name }

// Type returns the underlying host type (never a pointer type).
func (c *Class) Type() reflect.Type { return c.typ }

// Constructors returns the constructor candidate set in discovery order.
func (c *Class) Constructors() []*Method { return c.ctors }

// Inner returns the inner class of the given name.
func (c *Class) Inner(name string) (*Class, bool) {
	cls, ok := c.inner[name]
	return cls, ok
}

// MemberNames lists statics, inner classes, and method names, sorted.
// Used by inspection tooling; resolution never iterates this.
func (c *Class) MemberNames() []string {
	seen := make(map[string]struct{})
	for n := range c.statics {
		seen[n] = struct{}{}
	}
	for n := range c.inner {
		seen[n] = struct{}{}
	}
	for n := range c.staticMethods {
		seen[n] = struct{}{}
	}
	for n := range c.methods {
		seen[n] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Class) String() string {
	return fmt.Sprintf("class %s", c.name)
}

// Method is one resolved method or constructor candidate. params holds the
// call-time parameter types; for instance methods the receiver is excluded
// and supplied at call time.
type Method struct {
	name      string
	fn        reflect.Value
	params    []reflect.Type
	variadic  bool
	static    bool
	boundRecv bool
}

// Name returns the method name ("new" for constructors).
func (m *Method) Name() string { return m.name }

// Params returns the call-time parameter types, receiver excluded.
func (m *Method) Params() []reflect.Type { return m.params }

// Variadic reports whether the final parameter is variadic. Variadic
// candidates still dispatch on exact arity: the variadic slot takes one
// explicitly constructed slice argument.
func (m *Method) Variadic() bool { return m.variadic }

// Static reports whether the method is invoked without a receiver.
func (m *Method) Static() bool { return m.static }

// Signature renders the parameter type list as comma-separated type names,
// the form accepted by explicit signature resolution.
func (m *Method) Signature() string {
	parts := make([]string, len(m.params))
	for i, p := range m.params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// Call invokes the underlying function. recv is ignored for static methods
// and constructors. args must already be converted to the parameter types;
// for variadic methods the final arg is the explicit slice.
func (m *Method) Call(recv reflect.Value, args []reflect.Value) []reflect.Value {
	in := args
	if m.boundRecv {
		in = make([]reflect.Value, 0, len(args)+1)
		in = append(in, recv)
		in = append(in, args...)
	}
	if m.variadic {
		return m.fn.CallSlice(in)
	}
	return m.fn.Call(in)
}

// Object is an opaque reference to a host-side instance. The stored value
// is always addressable (a pointer to the class's underlying type) so that
// pointer-receiver methods and field writes work uniformly.
type Object struct {
	class *Class
	value reflect.Value
}

// NewObject wraps a host value as an instance of class. Non-pointer values
// are copied into fresh allocations.
func NewObject(class *Class, value reflect.Value) *Object {
	if value.Kind() != reflect.Pointer {
		ptr := reflect.New(value.Type())
		ptr.Elem().Set(value)
		value = ptr
	}
	return &Object{class: class, value: value}
}

// Class returns the runtime type of the instance.
func (o *Object) Class() *Class { return o.class }

// Value returns the stored pointer value.
func (o *Object) Value() reflect.Value { return o.value }

// Interface returns the instance as a plain Go value.
func (o *Object) Interface() any { return o.value.Interface() }

func (o *Object) String() string {
	return fmt.Sprintf("object %s", o.class.name)
}
