// Package index converts flat join-table rows into adjacency indices.
//
// Every many-to-many relation is consumed from both ends ("categories of an
// actor" and "actors of a category"), so Build produces forward and reverse
// adjacency in one O(n) pass over the join rows. Dangling rows - whose owner
// or member id does not resolve in the referenced entity table - are excluded
// here, at build time, so downstream stages never see invalid ids.
//
// Adjacency is stored as roaring bitmaps over a dense id arena (string id to
// uint32), which lets filter stages answer "has any of these members" by
// bitmap intersection instead of re-scanning association rows per entity per
// stage. Indices are rebuilt once per store change and reused by every filter
// stage and nesting operation.
package index
