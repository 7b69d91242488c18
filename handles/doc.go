// Package handles implements the cross-runtime reference-counted handle
// table that governs object lifetime in the bridge.
//
// A handle names a host object shared with the script runtime. Each entry
// carries two reference counts, one per runtime side; the entry stays alive
// while either count is positive and is dropped only when both reach zero.
// Neither runtime's garbage collector alone decides lifetime.
//
// Handles are stable small integers with identity semantics: exporting the
// same value twice yields the same handle. Dropped handles return to a free
// list for reuse, matching the table's bounded-growth design.
//
// Observers can subscribe to export/release events, and values implementing
// Dropper are cleaned up when their entry is dropped.
package handles
