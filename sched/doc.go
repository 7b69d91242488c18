// Package sched tracks the script execution contexts attached to the
// bridge.
//
// The main context is registered eagerly at id 0 when the registry is
// built. Script-created coroutine states are registered lazily by
// Acquire the first time they cross the boundary, while host-created
// states go through NewContext and are tracked from birth.
//
// Detach is deliberately strict: the main context never detaches, and a
// second detach of the same context is an error rather than a no-op, so
// lifecycle bugs surface instead of silently double-releasing.
package sched
