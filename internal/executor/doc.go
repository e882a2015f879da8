// Package executor is the dispatch engine: it turns requested source files
// into per-toolchain build lanes, runs those lanes sequentially or on a
// bounded worker pool, and joins every lane into one aggregate report.
//
// Lanes are fully isolated from each other. A lane that fails, times out
// or panics becomes a failed Outcome in the report; it never cancels or
// corrupts a sibling lane. The only state shared between concurrent lanes
// is the build cache, whose index serializes its own mutations.
package executor
