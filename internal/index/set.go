package index

import (
	"github.com/trellisdata/trellis/internal/dataset"
)

// Set holds the built indices of one store snapshot, keyed by join table.
// A Set is built once per store change and shared by every filter stage and
// nesting operation, so no stage ever re-scans association rows.
type Set struct {
	store   *dataset.Store
	byTable map[string]*Index
}

// BuildSet indexes the given relations against the store.
func BuildSet(store *dataset.Store, rels ...Relation) *Set {
	s := &Set{store: store, byTable: make(map[string]*Index, len(rels))}
	for _, rel := range rels {
		s.byTable[rel.Table] = Build(store, rel)
	}
	return s
}

// For returns the index for a relation, building and caching it on first use
// when the set was not seeded with it.
func (s *Set) For(rel Relation) *Index {
	if idx, ok := s.byTable[rel.Table]; ok {
		return idx
	}
	idx := Build(s.store, rel)
	s.byTable[rel.Table] = idx
	return idx
}

// Version returns the store version the set was built against.
func (s *Set) Version() uint64 {
	return s.store.Version()
}
