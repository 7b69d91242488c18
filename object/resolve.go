package object

import (
	"reflect"
	"strings"

	"github.com/objlink/objlink/errors"
)

// Member is the tagged result of name resolution on a class or object.
// Callers switch on the concrete type:
//
//	Field            a static or instance field's current value
//	InnerType        a nested class
//	MethodCandidates the same-named overloads in discovery order
//
// Resolution itself never fails for plain names: an unknown name resolves
// to an empty candidate set, deferring the failure to call time.
type Member interface {
	isMember()
}

// Field carries the current value of a resolved field.
type Field struct {
	Value any
}

// InnerType carries a resolved nested class.
type InnerType struct {
	Class *Class
}

// MethodCandidates carries a method candidate set. Methods may be empty;
// enumeration order equals discovery order and is never deduplicated or
// ranked.
type MethodCandidates struct {
	Name    string
	Methods []*Method
}

func (Field) isMember()            {}
func (InnerType) isMember()        {}
func (MethodCandidates) isMember() {}

// ConstructorName is the special member name denoting the constructor set.
const ConstructorName = "new"

// Resolve looks up name on the class. Order: public static field, then
// inner type, then static method candidate set. The name "new" resolves to
// the constructor set.
func (c *Class) Resolve(name string) Member {
	if name == ConstructorName {
		return MethodCandidates{Name: name, Methods: c.ctors}
	}
	if v, ok := c.statics[name]; ok {
		return Field{Value: v}
	}
	if inner, ok := c.inner[name]; ok {
		return InnerType{Class: inner}
	}
	return MethodCandidates{Name: name, Methods: c.staticMethods[name]}
}

// Resolve looks up name on the instance. Order: public instance field,
// then instance method candidate set. Inner types are not
// instance-addressable.
func (o *Object) Resolve(name string) Member {
	elem := o.value.Elem()
	if elem.Kind() == reflect.Struct {
		if f, ok := elem.Type().FieldByName(name); ok && f.IsExported() {
			return Field{Value: elem.FieldByIndex(f.Index).Interface()}
		}
	}
	return MethodCandidates{Name: name, Methods: o.class.methods[name]}
}

// ResolveSignature bypasses candidate-set dispatch and requires an exact
// parameter-type-list match (comma-separated type names as rendered by
// Method.Signature). Fails immediately when no such method exists.
// The name "new" selects from the constructor set; otherwise static methods
// when static is true, instance methods when false.
func (c *Class) ResolveSignature(name, signature string, static bool) (*Method, error) {
	var cands []*Method
	switch {
	case name == ConstructorName:
		cands = c.ctors
	case static:
		cands = c.staticMethods[name]
	default:
		cands = c.methods[name]
	}

	signature = strings.TrimSpace(signature)
	for _, m := range cands {
		if m.Signature() == signature {
			return m, nil
		}
	}
	return nil, errors.New(errors.StageResolve, errors.KindNotFound).
		Path(c.name, name).
		Detail("no method with signature (%s)", signature).
		Build()
}

// InstanceMethods returns the instance candidate set for name, in
// discovery order. The set may be empty.
func (c *Class) InstanceMethods(name string) []*Method {
	return c.methods[name]
}

// StaticMethods returns the static candidate set for name, in discovery
// order. The set may be empty.
func (c *Class) StaticMethods(name string) []*Method {
	return c.staticMethods[name]
}

// SplitQualified splits an "Interface:method" qualified name. Qualified
// names target the named interface's default implementation, bypassing an
// overriding proxy handler.
func SplitQualified(name string) (iface, method string, ok bool) {
	iface, method, ok = strings.Cut(name, ":")
	if !ok || iface == "" || method == "" {
		return "", "", false
	}
	return iface, method, true
}
