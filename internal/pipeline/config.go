package pipeline

import (
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/query"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

// Config declares how one entity type is listed: its base table, subtype
// scoping, search attributes, sort options, and which taxonomies,
// connections and attributes are filterable. Configs are compiled from CUE
// by the listconfig package; tests build them directly.
type Config struct {
	// Name is the entity type's list name ("actors", "actions").
	Name string

	// Table is the base entity table.
	Table string

	// SubtypeKey is the foreign key classifying entities into subtypes
	// ("actor_type_id"); SubtypeQueryKey the fragment key scoping the list
	// to one subtype ("actortype"). Both empty when the type has no subtypes.
	SubtypeKey      string
	SubtypeQueryKey string

	// CategoryRelation links base entities to their categories.
	CategoryRelation index.Relation

	// Applicability names the taxonomy applicability table for this type.
	Applicability taxonomy.Applicability

	// SearchAttributes are the fields the keyword stage matches against.
	SearchAttributes []string

	// SortOptions are the configured sorts; exactly one should be Default.
	SortOptions []query.SortOption

	// Attributes, Connections: the filterable specs, by variant.
	Attributes  []query.AttributeFilterSpec
	Connections []query.ConnectionFilterSpec

	// Dependencies are the tables that must be ready before any resolution;
	// until then every derivation yields an empty placeholder.
	Dependencies []string
}

// DefaultSort returns the configured default sort option, falling back to a
// string sort on id so resolution always has a total order.
func (c Config) DefaultSort() query.SortOption {
	for _, opt := range c.SortOptions {
		if opt.Default {
			return opt
		}
	}
	return query.SortOption{Attribute: "id", Type: query.SortString, Order: query.Ascending}
}

// SortOptionFor returns the configured option for a sort attribute token.
func (c Config) SortOptionFor(attribute string) (query.SortOption, bool) {
	for _, opt := range c.SortOptions {
		if opt.Attribute == attribute {
			return opt, true
		}
	}
	return query.SortOption{}, false
}

// ConnectionByName returns the connection spec addressed by a token name,
// honoring GroupByType prefixes.
func (c Config) ConnectionByName(tokenName string) (query.ConnectionFilterSpec, bool) {
	for _, spec := range c.Connections {
		if spec.Matches(tokenName) {
			return spec, true
		}
	}
	return query.ConnectionFilterSpec{}, false
}

// Relations returns every relation the config can touch, for index
// prebuilding: the category relation, each connection's relation, and each
// connection's category relation for two-hop filters.
func (c Config) Relations() []index.Relation {
	seen := map[string]struct{}{}
	var out []index.Relation
	add := func(rel index.Relation) {
		if rel.Table == "" {
			return
		}
		if _, ok := seen[rel.Table]; ok {
			return
		}
		seen[rel.Table] = struct{}{}
		out = append(out, rel)
	}
	add(c.CategoryRelation)
	for _, spec := range c.Connections {
		add(spec.Relation)
		add(spec.CategoryRelation)
	}
	return out
}
