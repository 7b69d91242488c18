package extension

import (
	"fmt"
	"reflect"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/dispatch"
	"github.com/objlink/objlink/object"
)

// entryPointType is the canonical module entry point signature. A static
// method with this shape receives the raw argument list unconverted.
var entryPointType = reflect.TypeOf((func([]any) (any, error))(nil))

// LoadModule resolves a registered class's static method as a script
// module entry point. It follows the script runtime's searcher protocol:
// the result is either a callable opener or a human-readable message
// saying why the module is unavailable. Absence is reported, never
// raised, so the runtime can fall through to its remaining searchers.
func LoadModule(d *dispatch.Dispatcher, className, methodName string) (objlink.Callable, string) {
	reg := d.Marshaler().Registry()

	cls, ok := reg.Lookup(className)
	if !ok {
		return nil, fmt.Sprintf("no class %q registered", className)
	}
	cands := cls.StaticMethods(methodName)
	if len(cands) == 0 {
		return nil, fmt.Sprintf("class %q has no static method %q", className, methodName)
	}

	// A candidate with the canonical entry point shape takes the raw
	// argument list as one value; anything else dispatches normally.
	for _, m := range cands {
		params := m.Params()
		if len(params) == 1 && params[0] == entryPointType.In(0) {
			entry := []*object.Method{m}
			return func(args ...any) (any, error) {
				return d.Invoke(nil, methodName, entry, []any{args})
			}, ""
		}
	}

	opener := func(args ...any) (any, error) {
		return d.Invoke(nil, methodName, cands, args)
	}
	return opener, ""
}
