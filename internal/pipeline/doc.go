// Package pipeline implements the cascading filter/sort pipeline.
//
// Resolution is a fixed, ordered composition of stages - subtype scope,
// attribute equality, keyword search, "without association", "has
// connection", "has category", "has category via connection", sort - each a
// pure function of the previous stage's output plus one slice of the query
// fragment, and the identity when that slice is absent. The order is part of
// the contract: later stages assume earlier narrowing has already happened
// (count-based "without" semantics are only meaningful once attribute and
// search filters have pruned the candidate set).
//
// FAILURE SEMANTICS:
//
// The pipeline never errors on query input. A filter token referencing a
// taxonomy, category or connection that no longer exists degrades that stage
// to a no-op; missing dependency tables short-circuit the whole resolution to
// an empty placeholder. Every stage's output is a subset (by id) of its
// input - no stage invents entities.
//
// COST MODEL:
//
// All relations are pre-indexed once per store change (see the index
// package) and the indices reused by every stage; resolved results are
// memoized by (store version, fragment hash), so referentially unchanged
// inputs reuse the prior result instead of recomputing.
package pipeline
