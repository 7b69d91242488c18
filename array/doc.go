// Package array exposes fixed-shape host arrays to the script runtime.
//
// The script side addresses elements with 1-based indices; translation to
// Go's 0-based indexing happens here and nowhere else. Out-of-range
// access fails with an index error whose message speaks the script's
// 1-based dialect.
//
// Multidimensional arrays are nested slices allocated eagerly at
// creation, so the shape is rectangular and fixed even though the
// backing storage is built from Go slices.
package array
