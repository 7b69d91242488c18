// Package extension loads host modules on behalf of the script runtime's
// module system.
//
// Both loaders follow the runtime's searcher protocol: a load attempt
// yields either a callable opener or a human-readable absence message,
// never an error, so the runtime can fall through to its remaining
// searchers.
//
// The native loader resolves a registered class's static method as the
// opener. The WASM loader instantiates sandboxed wazero modules and
// exposes a chosen export as the opener; only numeric values cross the
// sandbox boundary.
package extension
