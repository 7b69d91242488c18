// Package bridge assembles the boundary between a script runtime and the
// host object system.
//
// The Bridge facade owns one instance of every subsystem: the class
// registry, the value marshaler, the overload dispatcher, the proxy
// factory, the cross-runtime handle table, and the execution context
// registry. All of them share a single logger and a single throwable
// slot, so a host failure captured during dispatch is observable through
// Catched regardless of which operation triggered it.
//
// The exported operations mirror what a script runtime binds as its
// native library surface: Import, NewInstance, Access, Method, Assign,
// Proxy, Unwrap, NewArray, ToScriptValue, Catched, Detach, and
// LoadModule.
package bridge
