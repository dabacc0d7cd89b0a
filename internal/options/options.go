// Package options derives the enumerable filter and edit option sets shown
// next to an entity list: per-taxonomy category options, per-connection
// related-entity options and attribute options, each with a match count over
// the current resolved set and a checked state.
package options

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

var labelCollator = collate.New(language.Und, collate.Loose)

// Option is one selectable filter or edit choice. Count is always taken
// against the current resolved set, never the unfiltered table.
type Option struct {
	// Value is the token the option contributes under its query key.
	Value string
	Label string
	// Query names the fragment key the value belongs to.
	Query   string
	Count   int
	Checked pipeline.CheckedState
	// Group is the parent category id a taxonomy option rolls up under.
	Group string
	Draft bool
}

// Group is a named, ordered option list.
type Group struct {
	ID      string
	Label   string
	Options []Option
}

// Factory builds option groups for one entity list configuration.
type Factory struct {
	cfg pipeline.Config
}

func NewFactory(cfg pipeline.Config) *Factory {
	return &Factory{cfg: cfg}
}

// FilterGroups derives the filter sidebar for a resolution: taxonomy groups
// first in priority order, then connection groups, then attribute groups.
// Options nobody matches are dropped unless the fragment has them checked;
// a checked option always surfaces, with a zero count when the resolved set
// is empty or the target no longer exists.
func (f *Factory) FilterGroups(store *dataset.Store, r *pipeline.Resolved) []Group {
	if !r.Ready {
		return nil
	}
	b := &builder{
		cfg:      f.cfg,
		store:    store,
		resolved: r,
		entities: r.Entities,
		filter:   true,
	}
	return b.groups()
}

// EditGroups derives the assignment options for a selection of entities,
// e.g. a bulk-edit form. Every declared option is included regardless of
// count, and the checked state is the tri-state over the selection.
func (f *Factory) EditGroups(store *dataset.Store, r *pipeline.Resolved, selected []*dataset.Entity) []Group {
	if !r.Ready {
		return nil
	}
	b := &builder{
		cfg:      f.cfg,
		store:    store,
		resolved: r,
		entities: selected,
	}
	return b.groups()
}

type builder struct {
	cfg      pipeline.Config
	store    *dataset.Store
	resolved *pipeline.Resolved
	entities []*dataset.Entity
	// filter mode checks options against the fragment and reconstructs
	// checked zero-count options; edit mode enumerates everything with a
	// tri-state.
	filter bool
}

func (b *builder) groups() []Group {
	var out []Group
	out = append(out, b.taxonomyGroups()...)
	out = append(out, b.connectionGroups()...)
	out = append(out, b.attributeGroups()...)
	return out
}

// checked folds a match count into the option state. In filter mode the
// fragment decides; in edit mode the count does.
func (b *builder) checked(inFragment bool, count int) pipeline.CheckedState {
	if b.filter {
		if inFragment {
			return pipeline.CheckedAll
		}
		return pipeline.CheckedNone
	}
	return pipeline.Checked(count, len(b.entities))
}

func (b *builder) keep(checked pipeline.CheckedState, count int) bool {
	if !b.filter {
		return true
	}
	return count > 0 || checked == pipeline.CheckedAll
}

func (b *builder) taxonomyGroups() []Group {
	subtype, _ := b.resolved.Fragment.First(b.cfg.SubtypeQueryKey)
	taxes := taxonomy.ForSubtype(b.store, b.cfg.Applicability, subtype)
	idx := b.resolved.Indexes.For(b.cfg.CategoryRelation)
	catTokens := b.resolved.Fragment.Values(query.KeyCategory)
	withoutTokens := b.resolved.Fragment.Values(query.KeyWithout)

	covered := make(map[string]bool)
	var out []Group
	for _, tax := range taxes {
		resolved := taxonomy.WithCategories(b.store, tax, true)
		g := Group{
			ID:    "taxonomies-" + tax.ID,
			Label: dataset.Canon(tax.Attr("title")),
		}
		for _, cat := range resolved.Categories {
			count := b.countTagged(idx, cat.ID)
			checked := b.checked(slices.Contains(catTokens, cat.ID), count)
			if !b.keep(checked, count) {
				continue
			}
			covered[cat.ID] = true
			g.Options = append(g.Options, Option{
				Value:   cat.ID,
				Label:   dataset.Canon(cat.Attr("title")),
				Query:   query.KeyCategory,
				Count:   count,
				Checked: checked,
				Group:   cat.Group,
				Draft:   cat.Draft(),
			})
		}
		if b.filter {
			g.Options = append(g.Options, b.withoutTaxonomyOption(idx, resolved, withoutTokens))
		}
		out = append(out, g)
	}
	if b.filter {
		if orphans := b.orphanCategoryOptions(catTokens, covered); len(orphans) > 0 {
			out = append(out, Group{ID: "taxonomies", Label: "Categories", Options: orphans})
		}
	}
	return out
}

// withoutTaxonomyOption counts entities carrying no category of the
// taxonomy. Parent-taxonomy categories do not count as coverage.
func (b *builder) withoutTaxonomyOption(idx *index.Index, tax *taxonomy.Taxonomy, withoutTokens []string) Option {
	var own []string
	for _, cat := range tax.Categories {
		if !cat.FromParent {
			own = append(own, cat.ID)
		}
	}
	set := idx.MemberSet(own)
	count := 0
	for _, e := range b.entities {
		if !idx.IntersectsMembers(e.ID, set) {
			count++
		}
	}
	return Option{
		Value:   tax.ID,
		Label:   "Without " + dataset.Canon(tax.Attr("title")),
		Query:   query.KeyWithout,
		Count:   count,
		Checked: b.checked(slices.Contains(withoutTokens, tax.ID), count),
	}
}

// orphanCategoryOptions reconstructs checked category tokens no applicable
// taxonomy surfaced, so a direct navigation to a filtered URL still shows
// its active filters.
func (b *builder) orphanCategoryOptions(catTokens []string, covered map[string]bool) []Option {
	var out []Option
	for _, id := range catTokens {
		if covered[id] {
			continue
		}
		label := id
		if cat, ok := b.store.Entity(dataset.TableCategories, id); ok {
			label = dataset.Canon(cat.Attr("title"))
		}
		out = append(out, Option{
			Value:   id,
			Label:   label,
			Query:   query.KeyCategory,
			Checked: pipeline.CheckedAll,
		})
	}
	return out
}

func (b *builder) countTagged(idx *index.Index, categoryID string) int {
	count := 0
	for _, e := range b.entities {
		if idx.HasEdge(e.ID, categoryID) {
			count++
		}
	}
	return count
}

func (b *builder) connectionGroups() []Group {
	var out []Group
	for _, spec := range b.cfg.Connections {
		if spec.GroupByType {
			out = append(out, b.typedConnectionGroups(spec)...)
		} else {
			out = append(out, b.connectionGroup(spec, ""))
		}
	}
	return out
}

// typedConnectionGroups splits one connection into a group per related
// subtype, named "name_typeid". Subtypes appear when a counted or checked
// related entity carries them.
func (b *builder) typedConnectionGroups(spec query.ConnectionFilterSpec) []Group {
	table := b.store.Table(spec.RelatedTable())
	types := make(map[string]struct{})
	for _, e := range b.entities {
		for _, id := range b.relatedIDs(spec, e.ID) {
			if rel, ok := table.Get(id); ok {
				if t, ok := rel.Ref(spec.SubtypeKey); ok {
					types[t] = struct{}{}
				}
			}
		}
	}
	for _, tok := range b.resolved.Fragment.ConnectionTokens(spec.QueryKey) {
		if name, typeID := query.SplitTypedName(tok.Name); name == spec.Name && typeID != "" {
			types[typeID] = struct{}{}
		}
	}

	typeIDs := make([]string, 0, len(types))
	for t := range types {
		typeIDs = append(typeIDs, t)
	}
	slices.SortFunc(typeIDs, dataset.CompareIDs)

	out := make([]Group, 0, len(typeIDs))
	for _, typeID := range typeIDs {
		out = append(out, b.connectionGroup(spec, typeID))
	}
	return out
}

func (b *builder) connectionGroup(spec query.ConnectionFilterSpec, typeID string) Group {
	name := spec.Name
	if typeID != "" {
		name = query.TypedName(spec.Name, typeID)
	}
	table := b.store.Table(spec.RelatedTable())

	counts := make(map[string]int)
	for _, e := range b.entities {
		for _, id := range b.relatedIDs(spec, e.ID) {
			rel, ok := table.Get(id)
			if !ok {
				continue
			}
			if typeID != "" && !dataset.LooseEqualsID(rel.Attr(spec.SubtypeKey), typeID) {
				continue
			}
			counts[id]++
		}
	}

	checkedIDs := b.checkedConnectionIDs(spec, typeID)
	g := Group{ID: "connections-" + name, Label: spec.Label}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	for id := range checkedIDs {
		if _, ok := counts[id]; !ok {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		label := id
		draft := false
		if rel, ok := table.Get(id); ok {
			label = dataset.Canon(rel.Attr("title"))
			draft = rel.Draft()
		}
		count := counts[id]
		checked := b.checked(checkedIDs[id], count)
		if !b.keep(checked, count) {
			continue
		}
		g.Options = append(g.Options, Option{
			Value:   id,
			Label:   label,
			Query:   spec.QueryKey,
			Count:   count,
			Checked: checked,
			Draft:   draft,
		})
	}
	sortOptions(g.Options)

	if b.filter {
		g.Options = append(g.Options, b.withoutConnectionOption(spec, typeID, name))
	}
	return g
}

// checkedConnectionIDs collects the target ids the fragment has checked for
// this connection. A typed token only checks within its own type group.
func (b *builder) checkedConnectionIDs(spec query.ConnectionFilterSpec, typeID string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range b.resolved.Fragment.ConnectionTokens(spec.QueryKey) {
		name, tokType := query.SplitTypedName(tok.Name)
		if name != spec.Name {
			continue
		}
		if tokType != "" && tokType != typeID {
			continue
		}
		out[tok.ID] = true
	}
	return out
}

func (b *builder) withoutConnectionOption(spec query.ConnectionFilterSpec, typeID, name string) Option {
	table := b.store.Table(spec.RelatedTable())
	count := 0
	for _, e := range b.entities {
		connected := false
		for _, id := range b.relatedIDs(spec, e.ID) {
			rel, ok := table.Get(id)
			if !ok {
				continue
			}
			if typeID != "" && !dataset.LooseEqualsID(rel.Attr(spec.SubtypeKey), typeID) {
				continue
			}
			connected = true
			break
		}
		if !connected {
			count++
		}
	}
	withoutTokens := b.resolved.Fragment.Values(query.KeyWithout)
	return Option{
		Value:   name,
		Label:   "Without " + spec.Label,
		Query:   query.KeyWithout,
		Count:   count,
		Checked: b.checked(slices.Contains(withoutTokens, name), count),
	}
}

func (b *builder) relatedIDs(spec query.ConnectionFilterSpec, entityID string) []string {
	idx := b.resolved.Indexes.For(spec.Relation)
	if spec.EntityIsOwner {
		return idx.Members(entityID)
	}
	return idx.Owners(entityID)
}

func (b *builder) attributeGroups() []Group {
	whereTokens := b.resolved.Fragment.WhereTokens()
	var out []Group
	for _, spec := range b.cfg.Attributes {
		g := Group{ID: "attributes-" + spec.Attribute, Label: spec.Label}
		for _, opt := range spec.Options {
			count := b.countAttribute(spec.Attribute, opt.Value)
			inFragment := slices.ContainsFunc(whereTokens, func(t query.AttrToken) bool {
				return t.Attribute == spec.Attribute && t.Value == opt.Value
			})
			checked := b.checked(inFragment, count)
			if !b.keep(checked, count) {
				continue
			}
			g.Options = append(g.Options, Option{
				Value:   spec.Attribute + ":" + opt.Value,
				Label:   opt.Label,
				Query:   query.KeyWhere,
				Count:   count,
				Checked: checked,
			})
		}
		out = append(out, g)
	}
	return out
}

func (b *builder) countAttribute(attribute, value string) int {
	count := 0
	for _, e := range b.entities {
		v := e.Attr(attribute)
		if value == "null" {
			if dataset.IsNull(v) {
				count++
			}
			continue
		}
		if dataset.LooseEquals(v, dataset.String(value)) {
			count++
		}
	}
	return count
}

func sortOptions(opts []Option) {
	slices.SortStableFunc(opts, func(a, b Option) int {
		if c := labelCollator.CompareString(a.Label, b.Label); c != 0 {
			return c
		}
		return dataset.CompareIDs(a.Value, b.Value)
	})
}
