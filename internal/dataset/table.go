package dataset

import (
	"slices"
)

// Declared backend tables. The accessor boundary fails loudly on anything
// else - an undeclared table name is programmer error, not a data problem.
const (
	TableActors     = "actors"
	TableActions    = "actions"
	TableActorTypes = "actor_types"
	TableActionTypes = "action_types"

	// Join tables (many-to-many edges, one row per edge).
	TableActorActions     = "actor_actions"
	TableActionActors     = "action_actors" // actions targeting actors
	TableActorCategories  = "actor_categories"
	TableActionCategories = "action_categories"
	TableMemberships      = "memberships" // actor-actor membership
	TableUserCategories   = "user_categories"

	// Taxonomy applicability per entity subtype.
	TableActorTypeTaxonomies  = "actor_type_taxonomies"
	TableActionTypeTaxonomies = "action_type_taxonomies"

	TableTaxonomies = "taxonomies"
	TableCategories = "categories"
	TableUsers      = "users"
	TablePages      = "pages"
)

// declaredTables is the closed set of table names the store accepts.
var declaredTables = map[string]struct{}{
	TableActors:               {},
	TableActions:              {},
	TableActorTypes:           {},
	TableActionTypes:          {},
	TableActorActions:         {},
	TableActionActors:         {},
	TableActorCategories:      {},
	TableActionCategories:     {},
	TableMemberships:          {},
	TableUserCategories:       {},
	TableActorTypeTaxonomies:  {},
	TableActionTypeTaxonomies: {},
	TableTaxonomies:           {},
	TableCategories:           {},
	TableUsers:                {},
	TablePages:                {},
}

// DeclaredTables returns the sorted list of table names the store accepts.
func DeclaredTables() []string {
	names := make([]string, 0, len(declaredTables))
	for name := range declaredTables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Declared reports whether name is a declared table.
func Declared(name string) bool {
	_, ok := declaredTables[name]
	return ok
}

// Table holds the entities of one backend table, keyed by id.
// A nil map is a valid, empty table, so accessors never return nil checks
// to their callers.
type Table map[string]*Entity

// Get returns the entity with the given id, or (nil, false).
func (t Table) Get(id string) (*Entity, bool) {
	e, ok := t[id]
	return e, ok
}

// Len returns the number of entities in the table.
func (t Table) Len() int {
	return len(t)
}

// SortedIDs returns all ids in deterministic order (CompareIDs).
func (t Table) SortedIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// Sorted returns all entities in deterministic id order.
func (t Table) Sorted() []*Entity {
	ids := t.SortedIDs()
	out := make([]*Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, t[id])
	}
	return out
}

// Filter returns the entities satisfying keep, in deterministic id order.
// The result is always a subset of the table by id; no derivation invents
// entities.
func (t Table) Filter(keep func(*Entity) bool) []*Entity {
	out := make([]*Entity, 0)
	for _, e := range t.Sorted() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// NewTable builds a table from entities. Later duplicates win, matching the
// wholesale-replacement semantics of the loader (the last delivered row for
// an id is the current one).
func NewTable(entities ...*Entity) Table {
	t := make(Table, len(entities))
	for _, e := range entities {
		t[e.ID] = e
	}
	return t
}
