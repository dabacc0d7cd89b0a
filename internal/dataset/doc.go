// Package dataset holds the normalized in-memory copy of every backend table.
//
// The store is a flat, fully denormalized snapshot: one Table per backend
// table, each Table a mapping from string id to Entity. Associations are never
// embedded inside entities here; embedding only happens in derived projections
// built by the index and pipeline packages.
//
// IMMUTABILITY:
//
// A Store value is never mutated. The external loader replaces whole tables
// via ReplaceTable, which returns a new Store sharing every untouched table
// with its predecessor. Within one derivation the store is an immutable
// snapshot, which is what makes memoizing derivations by Version safe.
//
// ID COMPARISON:
//
// Ids arrive as both strings and numbers across source tables. All id and
// attribute comparisons go through one loose comparator (LooseEquals /
// CompareIDs) so the behavior is uniform instead of a source of intermittent
// mismatches.
package dataset
