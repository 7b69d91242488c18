package objlink

// Callable is a script-visible function value. Boundary operations that
// defer work (method lookup, proxy member access) return a Callable rather
// than resolving eagerly; the actual lookup happens when arguments are
// supplied.
type Callable func(args ...any) (any, error)
