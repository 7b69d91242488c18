package object

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/objlink/objlink/errors"
)

// Registry is the class and interface cache shared by the whole bridge.
// Classes are immutable once registered; the registry owns them and hands
// out shared references. Registry is safe for concurrent use.
type Registry struct {
	classes map[string]*Class
	byType  map[reflect.Type]*Class
	ifaces  map[string]*Interface
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
		ifaces:  make(map[string]*Interface),
	}
}

type classConfig struct {
	ctors         []any
	statics       map[string]any
	staticMethods []namedFunc
	inners        []innerDef
}

type namedFunc struct {
	name string
	fn   any
}

type innerDef struct {
	name     string
	template any
	opts     []ClassOption
}

// ClassOption configures class registration.
type ClassOption func(*classConfig)

// WithConstructor adds a constructor candidate. fn must be a function
// returning the class's underlying type (by value or pointer), optionally
// with a trailing error. Candidates are tried in registration order.
func WithConstructor(fn any) ClassOption {
	return func(c *classConfig) {
		c.ctors = append(c.ctors, fn)
	}
}

// WithStatic registers a public static field with the given current value.
// A static field always wins over a same-named inner type or method.
func WithStatic(name string, value any) ClassOption {
	return func(c *classConfig) {
		if c.statics == nil {
			c.statics = make(map[string]any)
		}
		c.statics[name] = value
	}
}

// WithStaticMethod adds a static method candidate under name. Repeated
// registrations of the same name build the overload set in registration
// order.
func WithStaticMethod(name string, fn any) ClassOption {
	return func(c *classConfig) {
		c.staticMethods = append(c.staticMethods, namedFunc{name: name, fn: fn})
	}
}

// WithInner registers a nested class. The inner class is also importable
// under its qualified name "Outer.Inner".
func WithInner(name string, template any, opts ...ClassOption) ClassOption {
	return func(c *classConfig) {
		c.inners = append(c.inners, innerDef{name: name, template: template, opts: opts})
	}
}

// Register builds and caches a class named name from a Go type template.
// template is either a reflect.Type or a value of the type; pointer
// templates are dereferenced. Instance methods are discovered from the
// pointer method set of the type; reflect enumerates them in sorted order,
// which becomes the candidate discovery order.
func (r *Registry) Register(name string, template any, opts ...ClassOption) (*Class, error) {
	if name == "" {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "class name cannot be empty"))
	}

	typ, err := templateType(name, template)
	if err != nil {
		return nil, err
	}

	var cfg classConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cls, err := r.buildClass(name, typ, &cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[name]; exists {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "class already registered"))
	}
	r.install(cls)
	return cls, nil
}

// install caches cls and all of its inner classes. Caller holds r.mu.
func (r *Registry) install(cls *Class) {
	r.classes[cls.name] = cls
	if _, ok := r.byType[cls.typ]; !ok {
		r.byType[cls.typ] = cls
	}
	for _, inner := range cls.inner {
		r.install(inner)
	}
}

func (r *Registry) buildClass(name string, typ reflect.Type, cfg *classConfig) (*Class, error) {
	cls := &Class{
		name:          name,
		typ:           typ,
		statics:       cfg.statics,
		inner:         make(map[string]*Class),
		methods:       make(map[string][]*Method),
		staticMethods: make(map[string][]*Method),
	}
	if cls.statics == nil {
		cls.statics = make(map[string]any)
	}

	for _, fn := range cfg.ctors {
		m, err := newConstructor(name, typ, fn)
		if err != nil {
			return nil, err
		}
		cls.ctors = append(cls.ctors, m)
	}

	for _, sm := range cfg.staticMethods {
		fv := reflect.ValueOf(sm.fn)
		if fv.Kind() != reflect.Func {
			return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "static method "+sm.name+" is not a function"))
		}
		ft := fv.Type()
		cls.staticMethods[sm.name] = append(cls.staticMethods[sm.name], &Method{
			name:     sm.name,
			fn:       fv,
			params:   funcParams(ft),
			variadic: ft.IsVariadic(),
			static:   true,
		})
	}

	scanInstanceMethods(cls)

	for _, def := range cfg.inners {
		innerTyp, err := templateType(def.name, def.template)
		if err != nil {
			return nil, err
		}
		var innerCfg classConfig
		for _, opt := range def.opts {
			opt(&innerCfg)
		}
		innerCls, err := r.buildClass(name+"."+def.name, innerTyp, &innerCfg)
		if err != nil {
			return nil, err
		}
		cls.inner[def.name] = innerCls
	}

	return cls, nil
}

func templateType(name string, template any) (reflect.Type, error) {
	var typ reflect.Type
	if t, ok := template.(reflect.Type); ok {
		typ = t
	} else if template != nil {
		typ = reflect.TypeOf(template)
	}
	if typ == nil {
		return nil, errors.Registration(name, errors.InvalidInput(errors.StageRegistry, "nil class template"))
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ, nil
}

func newConstructor(className string, typ reflect.Type, fn any) (*Method, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Registration(className, errors.InvalidInput(errors.StageRegistry, "constructor is not a function"))
	}

	ft := fv.Type()
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.Registration(className, errors.InvalidInput(errors.StageRegistry, "constructor second result must be error"))
		}
	default:
		return nil, errors.Registration(className, errors.InvalidInput(errors.StageRegistry, "constructor must return the instance, optionally with an error"))
	}

	out := ft.Out(0)
	for out.Kind() == reflect.Pointer {
		out = out.Elem()
	}
	if out != typ {
		return nil, errors.Registration(className, errors.InvalidInput(errors.StageRegistry, "constructor result type does not match class type"))
	}

	return &Method{
		name:     ConstructorName,
		fn:       fv,
		params:   funcParams(ft),
		variadic: ft.IsVariadic(),
		static:   true,
	}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func funcParams(ft reflect.Type) []reflect.Type {
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return params
}

// scanInstanceMethods discovers exported methods from the pointer method
// set of the class type. The receiver is stripped from the parameter list
// and supplied at call time.
func scanInstanceMethods(cls *Class) {
	pt := reflect.PointerTo(cls.typ)
	for i := 0; i < pt.NumMethod(); i++ {
		mt := pt.Method(i)
		if !mt.IsExported() {
			continue
		}
		ft := mt.Func.Type()
		params := make([]reflect.Type, 0, ft.NumIn()-1)
		for j := 1; j < ft.NumIn(); j++ {
			params = append(params, ft.In(j))
		}
		cls.methods[mt.Name] = append(cls.methods[mt.Name], &Method{
			name:      mt.Name,
			fn:        mt.Func,
			params:    params,
			variadic:  ft.IsVariadic(),
			boundRecv: true,
		})
	}
}

// Lookup returns a registered class by fully qualified name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cls, ok := r.classes[name]
	return cls, ok
}

// ClassFor returns the class registered for a Go type, dereferencing
// pointers.
func (r *Registry) ClassFor(typ reflect.Type) (*Class, bool) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cls, ok := r.byType[typ]
	return cls, ok
}

// ClassOf returns the class for a Go type, synthesizing an anonymous class
// on first sight of an unregistered type. The synthesized class keeps the
// invariant that one type maps to exactly one class.
func (r *Registry) ClassOf(typ reflect.Type) *Class {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	r.mu.RLock()
	cls, ok := r.byType[typ]
	r.mu.RUnlock()
	if ok {
		return cls
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cls, ok = r.byType[typ]; ok {
		return cls
	}

	cls = &Class{
		name:          typ.String(),
		typ:           typ,
		statics:       make(map[string]any),
		inner:         make(map[string]*Class),
		methods:       make(map[string][]*Method),
		staticMethods: make(map[string][]*Method),
	}
	scanInstanceMethods(cls)
	r.byType[typ] = cls
	return cls
}

// Import resolves a fully qualified class name, or a lazily populated
// package table when name ends in ".*". Fails with a resolution error when
// nothing matches.
func (r *Registry) Import(name string) (any, error) {
	if prefix, ok := strings.CutSuffix(name, ".*"); ok {
		if !r.hasChildren(prefix) {
			return nil, errors.NotFound(errors.StageResolve, "package", prefix)
		}
		return newPackageTable(r, prefix), nil
	}

	cls, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.StageResolve, "class", name)
	}
	return cls, nil
}

func (r *Registry) hasChildren(prefix string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.classes {
		if strings.HasPrefix(name, prefix+".") {
			return true
		}
	}
	return false
}

// childNames returns the next path segment of every registered class under
// prefix, deduplicated and sorted.
func (r *Registry) childNames(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range r.classes {
		rest, ok := strings.CutPrefix(name, prefix+".")
		if !ok {
			continue
		}
		seg, _, _ := strings.Cut(rest, ".")
		seen[seg] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Names returns all registered class names, sorted. Used by inspection
// tooling.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PackageTable is a lazily populated lookup table over the direct children
// of a package prefix. Child classes resolve to *Class; intermediate
// segments resolve to nested tables.
type PackageTable struct {
	reg    *Registry
	prefix string
	cache  map[string]any
	mu     sync.Mutex
}

func newPackageTable(r *Registry, prefix string) *PackageTable {
	return &PackageTable{
		reg:    r,
		prefix: prefix,
		cache:  make(map[string]any),
	}
}

// Prefix returns the package prefix this table covers.
func (p *PackageTable) Prefix() string { return p.prefix }

// Get resolves a direct child by name, caching the result.
func (p *PackageTable) Get(name string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.cache[name]; ok {
		return v, nil
	}

	qualified := p.prefix + "." + name
	if cls, ok := p.reg.Lookup(qualified); ok {
		p.cache[name] = cls
		return cls, nil
	}
	if p.reg.hasChildren(qualified) {
		sub := newPackageTable(p.reg, qualified)
		p.cache[name] = sub
		return sub, nil
	}
	return nil, errors.NotFound(errors.StageResolve, "class", qualified)
}

// Names lists the direct children of the package prefix.
func (p *PackageTable) Names() []string {
	return p.reg.childNames(p.prefix)
}
