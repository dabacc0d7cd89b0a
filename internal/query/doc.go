// Package query models the query fragment driving the derivation pipeline.
//
// A Fragment is a flat, multi-valued string token set - effectively URL query
// parameters - and is the only mutable external input to the engine.
// Recognized keys are fixed; unrecognized keys are dropped at parse time so
// the rest of the engine never sees them. Fragments are immutable once
// parsed and hash to a canonical string, which combined with the store
// version keys the pipeline's memo cache.
//
// The package also declares the closed set of filter-spec variants
// (attribute, taxonomy, connection) that configuration selects by explicit
// discriminant instead of ad hoc field presence checks.
package query
