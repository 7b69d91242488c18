// Package proxy implements script-backed host interfaces.
//
// A proxy pairs a script-side handler table with one or more registered
// interface descriptors. Creation resolves every interface eagerly, but
// member lookup on a proxy never fails: any name yields a callable, and
// the call itself reports an unimplemented method when neither a handler
// entry nor an interface default exists. Handler entries always win over
// defaults; defaults are consulted in interface declaration order.
//
// Qualified invocation (InvokeDefault) calls an interface's default
// directly, which is how a handler that overrides a default can still
// delegate to it.
//
// The factory deduplicates: creating a proxy twice from the same handler
// table, interface set, and execution context returns the same instance,
// so identity comparisons on the host side behave like a cached binding
// rather than minting fresh objects per call.
package proxy
