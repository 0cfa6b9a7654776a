// Package tracemap reads source maps and answers position queries against
// them in both directions.
//
// A source map associates positions in a generated file with positions in
// the original sources it was produced from. TraceMap is the entry point:
// it accepts the raw JSON of a standard or sectioned source map, or an
// already-parsed envelope, and exposes generated→original and
// original→generated lookups. The "mappings" field is kept in whichever
// form it arrived in and converted lazily; repeated queries against nearby
// positions (the common case when symbolicating a stack trace) are
// accelerated by remembering the previous search.
//
// Sectioned (index) maps are flattened into a single TraceMap on load.
// Composing a chain of maps, where the sources of one map are themselves
// the output of an earlier compilation step, is handled by the remap
// subpackage.
//
// A TraceMap is immutable after construction but maintains internal lazy
// caches, so a single instance must not be queried from multiple
// goroutines concurrently without external locking. Distinct instances
// share no state.
package tracemap
