// Package object defines the host-side class and instance model: classes
// built from Go types by reflection, the registry that caches them, and
// name resolution over their members.
//
// Resolution returns a tagged Member union rather than relying on runtime
// introspection at call sites:
//
//	switch m := cls.Resolve(name).(type) {
//	case object.Field:            // static field value, always wins
//	case object.InnerType:        // nested class
//	case object.MethodCandidates: // overload set, possibly empty
//	}
//
// Method candidate sets keep discovery order and are never deduplicated or
// ranked; the dispatch package relies on this for its order-dependent
// overload selection. An unknown plain name resolves to an empty candidate
// set so that "not found" surfaces at call time, not at access time.
// Explicit signature resolution (ResolveSignature) is the one eager path
// and fails immediately.
//
// Interfaces are registered method sets with optional host-side default
// implementations, consumed by the proxy package.
package object
