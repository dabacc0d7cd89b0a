package query

import (
	"strings"

	"github.com/trellisdata/trellis/internal/index"
)

// FilterSpec is a sealed interface over the filter configuration variants.
// Configuration selects a variant by explicit discriminant; each variant has
// a fixed field set instead of optional duck-typed fields.
type FilterSpec interface {
	filterSpec() // Sealed - only types in this package implement it
}

// AttributeOption is one enumerable value of an attribute filter.
type AttributeOption struct {
	Value string
	Label string
}

// AttributeFilterSpec filters on attribute equality via the where slice.
type AttributeFilterSpec struct {
	Attribute string
	Label     string
	Options   []AttributeOption // enumerable values; empty means free-form
	Search    bool              // option list is searchable in the UI
}

func (AttributeFilterSpec) filterSpec() {}

// TaxonomyFilterSpec filters on category membership within one taxonomy,
// via the cat/without slices.
type TaxonomyFilterSpec struct {
	TaxonomyID string
}

func (TaxonomyFilterSpec) filterSpec() {}

// ConnectionFilterSpec filters on a specific connection via the configured
// query key. Name is the token prefix in connection tokens ("actions" in
// "actions:3"); in GroupByType mode the prefix additionally encodes a target
// subtype id ("actions_1:3") and options are grouped per subtype.
type ConnectionFilterSpec struct {
	Name          string
	Label         string
	QueryKey      string // KeyConnected, KeyTargeted, KeyMember or KeyGroup
	Relation      index.Relation
	EntityIsOwner bool // list entities are the relation's owners (else members)
	GroupByType   bool
	SubtypeKey    string // related entity's subtype foreign key, for GroupByType

	// CategoryRelation links the related entities to their categories, for
	// two-hop "category via connection" filtering. Zero when the connection
	// does not participate in catx queries.
	CategoryRelation index.Relation
}

func (ConnectionFilterSpec) filterSpec() {}

// RelatedTable returns the table holding the entities on the far side of
// the connection.
func (s ConnectionFilterSpec) RelatedTable() string {
	if s.EntityIsOwner {
		return s.Relation.MemberTable
	}
	return s.Relation.OwnerTable
}

// SplitTypedName splits a groupByType token name ("actions_1") into the
// connection name and the target subtype id. Names without a separator
// return an empty subtype.
func SplitTypedName(name string) (string, string) {
	base, typeID, ok := strings.Cut(name, "_")
	if !ok {
		return name, ""
	}
	return base, typeID
}

// TypedName renders a groupByType token name from connection name and
// subtype id.
func TypedName(name, typeID string) string {
	if typeID == "" {
		return name
	}
	return name + "_" + typeID
}

// Matches reports whether a token name addresses this connection filter:
// exact in plain mode, prefix ("name_") or exact in GroupByType mode.
func (s ConnectionFilterSpec) Matches(tokenName string) bool {
	if s.GroupByType {
		base, _ := SplitTypedName(tokenName)
		return base == s.Name
	}
	return tokenName == s.Name
}

// SortType selects the comparator for a sort option.
type SortType string

const (
	SortString SortType = "string"
	SortNumber SortType = "number"
	SortDate   SortType = "date"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SortOption is one configured sort: an attribute, its comparator type and
// the default order when the option is selected without an explicit order.
type SortOption struct {
	Attribute string
	Type      SortType
	Order     SortOrder
	Default   bool // used when the fragment carries no sort token
}
