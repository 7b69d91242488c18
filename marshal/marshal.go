package marshal

import (
	"reflect"

	"github.com/objlink/objlink/object"
)

// Mode selects how host values travel back to the script side.
type Mode int

const (
	// ModeFull recursively converts host map-like and collection-like
	// structures into native script composites, and host type references
	// into classes. Primitives convert to their script representations.
	ModeFull Mode = iota

	// ModeWrap returns a thin object reference without structural
	// conversion. Primitives (bool, numbers, strings) still convert.
	ModeWrap
)

// HostConvertible lets bridge values carry their own conversion to a host
// parameter type. Proxies use this to convert into function-typed
// parameters.
type HostConvertible interface {
	ConvertToHost(target reflect.Type) (reflect.Value, bool)
}

// Marshaler converts values between the script representation (nil, bool,
// int64, float64, string, []any, map[string]any, Callable, handles) and
// host reflect values.
//
// Host-bound conversion is all-or-nothing per target type: it either
// produces a host-ready value or reports failure, never a partial result
// and never an error. The dispatcher treats failure as "try the next
// candidate".
type Marshaler struct {
	reg *object.Registry
}

// New creates a marshaler backed by the given class registry.
func New(reg *object.Registry) *Marshaler {
	return &Marshaler{reg: reg}
}

// Registry returns the backing class registry.
func (m *Marshaler) Registry() *object.Registry { return m.reg }

var (
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
)

func isAny(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}
