package pipeline

import (
	"sort"
	"strconv"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/query"
)

var collator = collate.New(language.Und, collate.Loose)

// dateLayouts are tried in order when interpreting a date-typed sort
// attribute. Values that parse under none of them sort as missing.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Sort returns the entities ordered by the given option. Entities whose sort
// attribute is absent or unparseable for the option's type are placed after
// all sortable entities regardless of direction. Ties and the missing block
// are ordered by entity id ascending so equal inputs always produce equal
// output.
func Sort(entities []*dataset.Entity, opt query.SortOption) []*dataset.Entity {
	out := make([]*dataset.Entity, len(entities))
	copy(out, entities)
	sort.SliceStable(out, func(i, j int) bool {
		return sortLess(out[i], out[j], opt)
	})
	return out
}

func sortLess(a, b *dataset.Entity, opt query.SortOption) bool {
	av, aok := sortKey(a, opt)
	bv, bok := sortKey(b, opt)
	if aok != bok {
		return aok // missing values after sortable ones
	}
	if !aok {
		return dataset.CompareIDs(a.ID, b.ID) < 0
	}
	c := compareKeys(av, bv, opt.Type)
	if c == 0 {
		return dataset.CompareIDs(a.ID, b.ID) < 0
	}
	if opt.Order == query.Descending {
		return c > 0
	}
	return c < 0
}

// sortKey extracts the comparable key for an entity, reporting false when the
// attribute is absent or does not parse under the option's type.
func sortKey(e *dataset.Entity, opt query.SortOption) (any, bool) {
	v := e.Attr(opt.Attribute)
	if dataset.IsNull(v) {
		return nil, false
	}
	raw := dataset.Canon(v)
	switch opt.Type {
	case query.SortNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case query.SortDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return nil, false
	default:
		return raw, true
	}
}

func compareKeys(a, b any, typ query.SortType) int {
	switch typ {
	case query.SortNumber:
		af, bf := a.(float64), b.(float64)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case query.SortDate:
		at, bt := a.(time.Time), b.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	default:
		return collator.CompareString(a.(string), b.(string))
	}
}
