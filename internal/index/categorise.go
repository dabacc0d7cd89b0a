package index

import (
	"github.com/trellisdata/trellis/internal/dataset"
)

// Categorised maps entity ids to the category ids they are linked to.
// It is the "entity with embedded category id-list" projection: associations
// stay in their join table, only this derived view embeds them.
type Categorised map[string][]string

// CategoryIDs attaches to each entity the list of category ids it is linked
// to, joining the grouped associations against the actual category table so a
// deleted category never appears as a phantom reference. Entities without
// links get an empty but present list, so consumers can distinguish "entity
// unknown" from "entity without categories".
func CategoryIDs(entities dataset.Table, idx *Index, categories dataset.Table) Categorised {
	out := make(Categorised, len(entities))
	for id := range entities {
		members := idx.Members(id)
		kept := make([]string, 0, len(members))
		for _, catID := range members {
			if _, ok := categories.Get(catID); ok {
				kept = append(kept, catID)
			}
		}
		out[id] = kept
	}
	return out
}

// Has reports whether the entity is linked to the category.
func (c Categorised) Has(entityID, categoryID string) bool {
	for _, id := range c[entityID] {
		if id == categoryID {
			return true
		}
	}
	return false
}

// HasAny reports whether the entity is linked to any of the categories.
func (c Categorised) HasAny(entityID string, categoryIDs []string) bool {
	for _, id := range categoryIDs {
		if c.Has(entityID, id) {
			return true
		}
	}
	return false
}
