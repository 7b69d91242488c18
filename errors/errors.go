package errors

import (
	"fmt"
	"strings"
)

// Stage indicates where in bridge processing the error occurred
type Stage string

const (
	StageResolve  Stage = "resolve"  // member and class lookup
	StageConvert  Stage = "convert"  // value marshaling
	StageDispatch Stage = "dispatch" // overload dispatch and invocation
	StageProxy    Stage = "proxy"    // proxy creation and forwarding
	StageContext  Stage = "context"  // execution context lifecycle
	StageArray    Stage = "array"    // array allocation and indexing
	StageLoad     Stage = "load"     // extension loading
	StageRegistry Stage = "registry" // class and interface registration
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindNoMatchingOverload Kind = "no_matching_overload"
	KindHostInvocation     Kind = "host_invocation"
	KindUnimplementedProxy Kind = "unimplemented_proxy_method"
	KindOutOfBounds        Kind = "index_out_of_bounds"
	KindInvalidContext     Kind = "invalid_context_operation"
	KindTypeMismatch       Kind = "type_mismatch"
	KindInvalidInput       Kind = "invalid_input"
	KindRegistration       Kind = "registration"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value      any
	Cause      error
	Stage      Stage
	Kind       Kind
	ScriptType string
	HostType   string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Stage))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.ScriptType != "" || e.HostType != "" {
		b.WriteString(": ")
		if e.ScriptType != "" && e.HostType != "" {
			b.WriteString("script type ")
			b.WriteString(e.ScriptType)
			b.WriteString(", host type ")
			b.WriteString(e.HostType)
		} else if e.ScriptType != "" {
			b.WriteString("script type ")
			b.WriteString(e.ScriptType)
		} else {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.ScriptType != "" || e.HostType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Stage == t.Stage && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(stage Stage, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Stage: stage,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// ScriptType sets the script-side type name
func (b *Builder) ScriptType(t string) *Builder {
	b.err.ScriptType = t
	return b
}

// HostType sets the host-side type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotFound creates a resolution failure for a missing class, member, or interface
func NotFound(stage Stage, what, name string) *Error {
	return &Error{
		Stage:  stage,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NoMatchingOverload creates a dispatch failure for a candidate set where no
// argument list matched any signature
func NoMatchingOverload(name string, candidates, args int) *Error {
	return &Error{
		Stage:  StageDispatch,
		Kind:   KindNoMatchingOverload,
		Path:   []string{name},
		Detail: fmt.Sprintf("no candidate out of %d accepts %d argument(s)", candidates, args),
	}
}

// HostInvocation wraps a value thrown by a matched host call. The thrown
// value is retained on the error and in the dispatcher's throwable slot.
func HostInvocation(name string, thrown any) *Error {
	return &Error{
		Stage:  StageDispatch,
		Kind:   KindHostInvocation,
		Path:   []string{name},
		Detail: fmt.Sprintf("host call raised: %v", thrown),
		Value:  thrown,
	}
}

// UnimplementedProxy creates an error for a proxy call with no handler entry
// and no default implementation
func UnimplementedProxy(method string) *Error {
	return &Error{
		Stage:  StageProxy,
		Kind:   KindUnimplementedProxy,
		Path:   []string{method},
		Detail: "no handler entry and no default implementation",
	}
}

// OutOfBounds creates an index error. index is the script-side 1-based
// index, length the dimension size.
func OutOfBounds(index, length int) *Error {
	return &Error{
		Stage:  StageArray,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (size %d, valid 1..%d)", index, length, length),
		Value:  index,
	}
}

// InvalidContext creates a context lifecycle error
func InvalidContext(detail string) *Error {
	return &Error{
		Stage:  StageContext,
		Kind:   KindInvalidContext,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(stage Stage, path []string, scriptType, hostType string) *Error {
	return &Error{
		Stage:      stage,
		Kind:       KindTypeMismatch,
		Path:       path,
		ScriptType: scriptType,
		HostType:   hostType,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(stage Stage, detail string) *Error {
	return &Error{
		Stage:  stage,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a class or interface registration error
func Registration(name string, cause error) *Error {
	return &Error{
		Stage:  StageRegistry,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %q", name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(stage Stage, kind Kind, cause error, detail string) *Error {
	return &Error{
		Stage:  stage,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
