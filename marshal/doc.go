// Package marshal converts values between the script runtime's
// representation and host reflect values.
//
// Host-bound conversion (ToHost) is driven by the target parameter type of
// the specific candidate under consideration, not by a canonical host type:
// the same script number may become an int8 for one candidate and a float32
// for the next. Conversion either fully succeeds or fully fails; failure is
// reported, never raised, so the dispatcher can continue its linear scan.
//
// Script-bound conversion (ToScript) has two modes. ModeFull recursively
// converts host maps and slices into native script composites and host
// type references into classes; ModeWrap mints a thin object handle without
// structural conversion. Primitives convert in both modes.
//
// Numeric coercion is value-preserving (see coerce.go): floats reach
// integer targets only when integral and in range, signed values reach
// unsigned targets only when non-negative.
package marshal
