// Package errors provides structured error types for the objlink bridge.
//
// Errors are categorized by Stage (where the error occurred) and Kind
// (error category). The Error type includes rich context: member path,
// script/host type names, the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.StageConvert, errors.KindTypeMismatch).
//		Path("Counter", "Add").
//		ScriptType("string").
//		HostType("int").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.StageResolve, "class", "demo.Counter")
//	err := errors.NoMatchingOverload("Add", 3, 2)
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Stage and Kind agree, so
// callers can classify failures without string inspection.
//
// Propagation policy: resolution and dispatch failures surface immediately
// at the call site as raised errors. The only sanctioned absence signal in
// the bridge is the extension loader's (nil, message) pair.
package errors
