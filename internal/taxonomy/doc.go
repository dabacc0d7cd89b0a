// Package taxonomy resolves the flat taxonomy and category tables into
// taxonomy-with-categories projections.
//
// Taxonomies form a two-level hierarchy (a taxonomy may have a parent
// taxonomy, no deeper nesting is modeled), are scoped to entity subtypes
// through type-applicability join tables, and group their categories for
// sidebars and edit forms. A category belongs to exactly one taxonomy;
// categories whose taxonomy_id does not resolve are dropped from every
// projection rather than surfacing as phantoms.
package taxonomy
