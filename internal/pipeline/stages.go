package pipeline

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/query"
)

// maxIDRange caps how many ids an "n-m" range token may expand to. Larger
// ranges are treated as malformed and degrade the token to a no-op.
const maxIDRange = 10000

var foldCaser = cases.Fold()

// BySubtype keeps entities of the given subtype. Identity when subtypeID is
// empty or "all".
func BySubtype(entities []*dataset.Entity, subtypeKey, subtypeID string) []*dataset.Entity {
	if subtypeKey == "" || subtypeID == "" || subtypeID == "all" {
		return entities
	}
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		if dataset.LooseEqualsID(e.Attr(subtypeKey), subtypeID) {
			out = append(out, e)
		}
	}
	return out
}

// ByAttributes keeps entities where attributes[key] loosely equals value for
// every where token. A token with value "null" selects entities where the
// attribute is absent.
func ByAttributes(entities []*dataset.Entity, tokens []query.AttrToken) []*dataset.Entity {
	if len(tokens) == 0 {
		return entities
	}
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		if matchesAttributes(e, tokens) {
			out = append(out, e)
		}
	}
	return out
}

func matchesAttributes(e *dataset.Entity, tokens []query.AttrToken) bool {
	for _, tok := range tokens {
		v := e.Attr(tok.Attribute)
		if tok.IsNull() {
			if !dataset.IsNull(v) {
				return false
			}
			continue
		}
		if !dataset.LooseEquals(v, dataset.String(tok.Value)) {
			return false
		}
	}
	return true
}

// ByKeywords keeps entities where any of the given attribute fields contains
// the search term as a case-insensitive substring (Unicode case folding).
// Identity when the term or the field list is empty.
func ByKeywords(entities []*dataset.Entity, term string, attributes []string) []*dataset.Entity {
	if term == "" || len(attributes) == 0 {
		return entities
	}
	needle := foldCaser.String(term)
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		for _, attr := range attributes {
			v := e.Attr(attr)
			if dataset.IsNull(v) {
				continue
			}
			if strings.Contains(foldCaser.String(dataset.Canon(v)), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// WithoutAssociation keeps entities that have no membership in the named
// taxonomy or connection: numeric tokens name a taxonomy (no category of
// that taxonomy), other tokens name a connection (no edge, optionally
// restricted to a subtype in "name_type" form). Tokens referencing a
// taxonomy or connection that does not exist degrade to a no-op.
func WithoutAssociation(entities []*dataset.Entity, cfg Config, store *dataset.Store, idxs *index.Set, tokens []string) []*dataset.Entity {
	if len(tokens) == 0 {
		return entities
	}
	out := entities
	for _, tok := range tokens {
		if _, err := strconv.Atoi(tok); err == nil {
			out = withoutTaxonomy(out, cfg, store, idxs, tok)
		} else {
			out = withoutConnection(out, cfg, store, idxs, tok)
		}
	}
	return out
}

func withoutTaxonomy(entities []*dataset.Entity, cfg Config, store *dataset.Store, idxs *index.Set, taxonomyID string) []*dataset.Entity {
	if _, ok := store.Entity(dataset.TableTaxonomies, taxonomyID); !ok {
		return entities // stale token
	}
	idx := idxs.For(cfg.CategoryRelation)
	set := idx.MemberSet(categoryIDsOf(store, taxonomyID))
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		if !idx.IntersectsMembers(e.ID, set) {
			out = append(out, e)
		}
	}
	return out
}

func withoutConnection(entities []*dataset.Entity, cfg Config, store *dataset.Store, idxs *index.Set, tokenName string) []*dataset.Entity {
	spec, ok := cfg.ConnectionByName(tokenName)
	if !ok {
		return entities // stale token
	}
	_, typeID := query.SplitTypedName(tokenName)
	idx := idxs.For(spec.Relation)
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		if !hasConnection(e.ID, spec, typeID, idx, store) {
			out = append(out, e)
		}
	}
	return out
}

// hasConnection reports whether the entity has any edge for the spec,
// restricted to related entities of the given subtype when typeID is set.
func hasConnection(entityID string, spec query.ConnectionFilterSpec, typeID string, idx *index.Index, store *dataset.Store) bool {
	var related []string
	if spec.EntityIsOwner {
		if typeID == "" {
			return idx.HasMembers(entityID)
		}
		related = idx.Members(entityID)
	} else {
		if typeID == "" {
			return idx.HasOwners(entityID)
		}
		related = idx.Owners(entityID)
	}
	table := store.Table(spec.RelatedTable())
	for _, id := range related {
		r, ok := table.Get(id)
		if !ok {
			continue
		}
		if dataset.LooseEqualsID(r.Attr(spec.SubtypeKey), typeID) {
			return true
		}
	}
	return false
}

// ByConnection keeps entities linked, via the connection a token names, to
// the token's target id or id-range. Tokens narrow conjunctively; a token
// whose connection or target cannot be resolved degrades to a no-op.
func ByConnection(entities []*dataset.Entity, cfg Config, store *dataset.Store, idxs *index.Set, queryKey string, tokens []query.ConnToken) []*dataset.Entity {
	if len(tokens) == 0 {
		return entities
	}
	out := entities
	for _, tok := range tokens {
		spec, ok := cfg.ConnectionByName(tok.Name)
		if !ok || spec.QueryKey != queryKey {
			continue // stale or misaddressed token
		}
		_, typeID := query.SplitTypedName(tok.Name)
		targets := resolveTargets(store, spec, typeID, tok.ID)
		if len(targets) == 0 {
			continue // nothing to narrow by
		}
		out = keepConnected(out, spec, idxs.For(spec.Relation), targets)
	}
	return out
}

// resolveTargets expands a target token ("3" or "3-7") into the existing
// related-entity ids it addresses, honoring the subtype encoded in a
// groupByType token name.
func resolveTargets(store *dataset.Store, spec query.ConnectionFilterSpec, typeID, token string) []string {
	table := store.Table(spec.RelatedTable())
	var out []string
	for _, id := range expandIDRange(token) {
		r, ok := table.Get(id)
		if !ok {
			continue
		}
		if typeID != "" && !dataset.LooseEqualsID(r.Attr(spec.SubtypeKey), typeID) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func expandIDRange(token string) []string {
	lo, hi, ok := strings.Cut(token, "-")
	if !ok {
		return []string{token}
	}
	start, err1 := strconv.Atoi(lo)
	end, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil || end < start || end-start > maxIDRange {
		return []string{token}
	}
	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func keepConnected(entities []*dataset.Entity, spec query.ConnectionFilterSpec, idx *index.Index, targets []string) []*dataset.Entity {
	out := make([]*dataset.Entity, 0, len(entities))
	if spec.EntityIsOwner {
		set := idx.MemberSet(targets)
		for _, e := range entities {
			if idx.IntersectsMembers(e.ID, set) {
				out = append(out, e)
			}
		}
	} else {
		set := idx.OwnerSet(targets)
		for _, e := range entities {
			if idx.IntersectsOwners(e.ID, set) {
				out = append(out, e)
			}
		}
	}
	return out
}

// ByCategories keeps entities linked to every category the cat slice names.
// Tokens naming a category that no longer exists degrade to a no-op.
func ByCategories(entities []*dataset.Entity, store *dataset.Store, categorised index.Categorised, categoryIDs []string) []*dataset.Entity {
	kept := existingCategories(store, categoryIDs)
	if len(kept) == 0 {
		return entities
	}
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		all := true
		for _, catID := range kept {
			if !categorised.Has(e.ID, catID) {
				all = false
				break
			}
		}
		if all {
			out = append(out, e)
		}
	}
	return out
}

// ByConnectedCategories keeps entities connected to another entity that is
// tagged with every category the catx slice names - the two-hop filter for
// "related via an organization" style queries. Depth is fixed at one hop
// through each connection.
func ByConnectedCategories(entities []*dataset.Entity, cfg Config, store *dataset.Store, idxs *index.Set, categoryIDs []string) []*dataset.Entity {
	kept := existingCategories(store, categoryIDs)
	if len(kept) == 0 {
		return entities
	}
	out := entities
	for _, catID := range kept {
		out = connectedToTagged(out, cfg, idxs, catID)
	}
	return out
}

func connectedToTagged(entities []*dataset.Entity, cfg Config, idxs *index.Set, categoryID string) []*dataset.Entity {
	out := make([]*dataset.Entity, 0, len(entities))
	for _, e := range entities {
		for _, spec := range cfg.Connections {
			if anyConnectedTagged(e.ID, spec, idxs, categoryID) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// anyConnectedTagged reports whether any entity related through the spec's
// connection is tagged with the category.
func anyConnectedTagged(entityID string, spec query.ConnectionFilterSpec, idxs *index.Set, categoryID string) bool {
	if spec.CategoryRelation.Table == "" {
		return false
	}
	tagged := idxs.For(spec.CategoryRelation).Owners(categoryID)
	if len(tagged) == 0 {
		return false
	}
	idx := idxs.For(spec.Relation)
	if spec.EntityIsOwner {
		return idx.IntersectsMembers(entityID, idx.MemberSet(tagged))
	}
	return idx.IntersectsOwners(entityID, idx.OwnerSet(tagged))
}

// existingCategories drops tokens whose category id does not resolve.
func existingCategories(store *dataset.Store, categoryIDs []string) []string {
	var out []string
	for _, id := range categoryIDs {
		if _, ok := store.Entity(dataset.TableCategories, id); ok {
			out = append(out, id)
		}
	}
	return out
}

// categoryIDsOf returns the ids of all categories belonging to a taxonomy.
func categoryIDsOf(store *dataset.Store, taxonomyID string) []string {
	var out []string
	for id, cat := range store.Table(dataset.TableCategories) {
		if dataset.LooseEqualsID(cat.Attr("taxonomy_id"), taxonomyID) {
			out = append(out, id)
		}
	}
	return out
}
