package taxonomy

import (
	"slices"
	"strconv"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
)

// Applicability names a type-applicability join table: which taxonomies are
// legal for which entity subtype.
type Applicability struct {
	Table       string
	TaxonomyKey string
	SubtypeKey  string
}

// The declared applicability tables.
var (
	ActorTypes = Applicability{
		Table:       dataset.TableActorTypeTaxonomies,
		TaxonomyKey: "taxonomy_id",
		SubtypeKey:  "actor_type_id",
	}
	ActionTypes = Applicability{
		Table:       dataset.TableActionTypeTaxonomies,
		TaxonomyKey: "taxonomy_id",
		SubtypeKey:  "action_type_id",
	}
)

// Category is a category annotated for one projection. Group names the
// parent category it rolls up under (empty when the taxonomy has no parent),
// FromParent marks categories unioned in from the parent taxonomy, and
// Checked is only meaningful after IsAssociated.
type Category struct {
	*dataset.Entity
	Group      string
	FromParent bool
	Checked    bool
}

// Taxonomy is a taxonomy annotated for one projection. Categories is nil
// until resolved by WithCategories; after resolution it is empty-but-present
// even when the taxonomy has no categories, so consumers can distinguish "no
// taxonomy" from "empty taxonomy".
type Taxonomy struct {
	*dataset.Entity
	SubtypeIDs []string
	Categories []*Category
}

// Priority returns the taxonomy's sort priority; taxonomies without one sort
// last.
func (t *Taxonomy) Priority() (float64, bool) {
	return numericAttr(t.Entity, "priority")
}

// ParentID returns the id of the parent taxonomy, if any.
func (t *Taxonomy) ParentID() (string, bool) {
	return t.Ref("parent_id")
}

// AllowsMultiple reports whether entities may carry more than one category of
// this taxonomy.
func (t *Taxonomy) AllowsMultiple() bool {
	return t.Attributes.Bool("allow_multiple")
}

// ForSubtype returns the taxonomies legal for the given subtype id, sorted by
// priority, each annotated with the full list of subtype ids it applies to.
// An empty subtypeID means "legal for any subtype" (the taxonomy appears in
// the applicability table at all). Returns nil until the taxonomy and
// applicability tables are ready.
func ForSubtype(store *dataset.Store, app Applicability, subtypeID string) []*Taxonomy {
	if !store.Ready(dataset.TableTaxonomies, app.Table) {
		return nil
	}

	applicable := map[string][]string{} // taxonomy id -> subtype ids
	for _, row := range store.Table(app.Table).Sorted() {
		taxID, ok := row.Ref(app.TaxonomyKey)
		if !ok {
			continue
		}
		typeID, ok := row.Ref(app.SubtypeKey)
		if !ok {
			continue
		}
		applicable[taxID] = append(applicable[taxID], typeID)
	}

	out := make([]*Taxonomy, 0, len(applicable))
	for _, e := range sortedByPriority(store.Table(dataset.TableTaxonomies)) {
		subtypes, ok := applicable[e.ID]
		if !ok {
			continue
		}
		if subtypeID != "" && !slices.Contains(subtypes, subtypeID) {
			continue
		}
		out = append(out, &Taxonomy{Entity: e, SubtypeIDs: subtypes})
	}
	return out
}

// All returns every taxonomy sorted by priority, without subtype annotation.
func All(store *dataset.Store) []*Taxonomy {
	if !store.Ready(dataset.TableTaxonomies) {
		return nil
	}
	entities := sortedByPriority(store.Table(dataset.TableTaxonomies))
	out := make([]*Taxonomy, 0, len(entities))
	for _, e := range entities {
		out = append(out, &Taxonomy{Entity: e})
	}
	return out
}

// Tagged returns the taxonomies whose tag flag (e.g. "tags_users",
// "tags_actors") is set, with categories resolved.
func Tagged(store *dataset.Store, tagKey string) []*Taxonomy {
	out := []*Taxonomy{}
	for _, tax := range All(store) {
		if tax.Attributes.Bool(tagKey) {
			out = append(out, WithCategories(store, tax, false))
		}
	}
	return out
}

// Get returns the taxonomy with the given id, unresolved.
func Get(store *dataset.Store, id string) (*Taxonomy, bool) {
	e, ok := store.Entity(dataset.TableTaxonomies, id)
	if !ok {
		return nil, false
	}
	return &Taxonomy{Entity: e}, true
}

// WithCategories resolves the taxonomy's categories, sorted by their order
// attribute (then title, then id). When includeParents is set and the
// taxonomy has a parent taxonomy, the parent's categories are unioned in
// alongside, and every own category carries a Group tag naming the parent
// category it rolls up under.
//
// The categories collection is always present after this call, empty when
// the taxonomy has none.
func WithCategories(store *dataset.Store, tax *Taxonomy, includeParents bool) *Taxonomy {
	resolved := &Taxonomy{
		Entity:     tax.Entity,
		SubtypeIDs: tax.SubtypeIDs,
		Categories: []*Category{},
	}
	if !store.Ready(dataset.TableCategories) {
		return resolved
	}

	parentID, hasParent := tax.ParentID()
	categories := store.Table(dataset.TableCategories)

	for _, e := range sortedCategories(categories) {
		taxID, ok := e.Ref("taxonomy_id")
		if !ok {
			continue
		}
		switch {
		case taxID == tax.ID:
			cat := &Category{Entity: e}
			if hasParent && includeParents {
				if group, ok := e.Ref("parent_id"); ok {
					cat.Group = group
				}
			}
			resolved.Categories = append(resolved.Categories, cat)
		case includeParents && hasParent && taxID == parentID:
			resolved.Categories = append(resolved.Categories, &Category{Entity: e, FromParent: true})
		}
	}
	return resolved
}

// ResolveWithCategories is WithCategories by taxonomy id.
func ResolveWithCategories(store *dataset.Store, taxonomyID string, includeParents bool) (*Taxonomy, bool) {
	tax, ok := Get(store, taxonomyID)
	if !ok {
		return nil, false
	}
	return WithCategories(store, tax, includeParents), true
}

// IsAssociated annotates each category of an already-resolved taxonomy with
// whether the given single entity is currently linked to it, per the
// entity-to-category association index. Used by edit forms to preselect a
// form's category checkboxes.
func IsAssociated(tax *Taxonomy, entityID string, idx *index.Index) *Taxonomy {
	out := &Taxonomy{
		Entity:     tax.Entity,
		SubtypeIDs: tax.SubtypeIDs,
		Categories: make([]*Category, len(tax.Categories)),
	}
	for i, cat := range tax.Categories {
		annotated := *cat
		annotated.Checked = idx.HasEdge(entityID, cat.ID)
		out.Categories[i] = &annotated
	}
	return out
}

// Parent returns the parent taxonomy, if the hierarchy has one. The
// hierarchy is two levels deep at most; a parent's own parent_id is ignored.
func Parent(store *dataset.Store, tax *Taxonomy) (*Taxonomy, bool) {
	parentID, ok := tax.ParentID()
	if !ok {
		return nil, false
	}
	return Get(store, parentID)
}

// sortedByPriority orders taxonomies by priority ascending, nulls last,
// ties broken by id.
func sortedByPriority(t dataset.Table) []*dataset.Entity {
	out := t.Sorted()
	slices.SortStableFunc(out, func(a, b *dataset.Entity) int {
		if c := compareNumeric(a, b, "priority"); c != 0 {
			return c
		}
		return dataset.CompareIDs(a.ID, b.ID)
	})
	return out
}

// sortedCategories orders categories by order ascending (nulls last), then
// title, then id.
func sortedCategories(t dataset.Table) []*dataset.Entity {
	out := t.Sorted()
	slices.SortStableFunc(out, func(a, b *dataset.Entity) int {
		if c := compareNumeric(a, b, "order"); c != 0 {
			return c
		}
		at, bt := a.Attributes.String("title"), b.Attributes.String("title")
		if at != bt {
			if at < bt {
				return -1
			}
			return 1
		}
		return dataset.CompareIDs(a.ID, b.ID)
	})
	return out
}

func compareNumeric(a, b *dataset.Entity, key string) int {
	av, aok := numericAttr(a, key)
	bv, bok := numericAttr(b, key)
	switch {
	case aok && bok:
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case aok:
		return -1 // values before nulls
	case bok:
		return 1
	default:
		return 0
	}
}

func numericAttr(e *dataset.Entity, key string) (float64, bool) {
	v := e.Attr(key)
	if dataset.IsNull(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(dataset.Canon(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
