// Package dispatch implements overload dispatch from script argument
// lists onto host method candidate sets.
//
// The algorithm is a strict linear scan with early exit: candidates are
// tried in discovery order, every supplied argument must convert against a
// candidate's parameter types for it to match, and the first match is
// invoked. No arity-based, specificity-based, or widening-priority
// tie-break is applied; observable behavior depends only on candidate
// order and argument types. Changing this to host-language-correct
// overload ranking would change observable behavior and requires sign-off,
// not a bug fix.
//
// Variadic host methods never dispatch implicitly over a flattened tail:
// the variadic slot takes exactly one explicitly constructed sequence, so
// every candidate dispatches on its true parameter count.
//
// When a matched call raises (a panic or a non-nil trailing error), the
// thrown value is recorded in the ThrownSlot and the call fails with a
// host invocation error. The slot is a bridge-wide single-slot diagnostic
// with last-write-wins semantics.
package dispatch
