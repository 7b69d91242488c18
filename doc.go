// Package objlink implements the call-and-conversion core of an embedding
// bridge between a scripting runtime and the Go object system.
//
// Host classes are Go types registered with the object.Registry; script-side
// values are plain Go trees (nil, bool, int64, float64, string, []any,
// map[string]any, Callable) plus opaque class/object handles.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	objlink/          Root package with the shared Callable type
//	├── bridge/       High-level facade exposing the boundary operations
//	├── object/       Class/object model, registry, and member resolution
//	├── marshal/      Value conversion between script and host representations
//	├── dispatch/     Order-dependent overload dispatch and throwable capture
//	├── proxy/        Script-backed implementations of host interfaces
//	├── sched/        Execution context registry and lifetime control
//	├── array/        Fixed-shape host arrays with 1-based indexing
//	├── handles/      Cross-runtime reference-counted handle table
//	├── extension/    Extension entry-point loading (native and wasm)
//	└── errors/       Structured error types for debugging
//
// # Quick Start
//
// Register a class and call it through the boundary API:
//
//	reg := object.NewRegistry()
//	reg.Register("demo.Counter", Counter{},
//	    object.WithConstructor(func(start int) *Counter { return &Counter{Count: start} }),
//	)
//
//	b := bridge.New(reg)
//	obj, _ := b.NewInstance(b.Main(), "demo.Counter", int64(10))
//	add, _ := b.Method(obj, "Add", "")
//	v, _ := add(int64(5))
//
// # Overload Resolution
//
// Dispatch is a strict linear scan over method candidates in discovery
// order: the first candidate whose parameter types accept every supplied
// argument is invoked. No specificity or widening ranking is applied, so
// selection is intentionally order-dependent. See the dispatch package.
//
// # Thread Safety
//
// Registry, Bridge, and the handle table are safe for concurrent use.
// Script execution contexts are cooperative: host calls issued from a
// context block that context until they return. The most-recent-throwable
// diagnostic is a single bridge-wide slot with last-write-wins semantics.
package objlink
