package pipeline

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/query"
)

// Pipeline resolves query fragments against store snapshots for one entity
// list. It is not safe for concurrent use; callers drive it from a single
// goroutine per the store's single-writer model.
type Pipeline struct {
	cfg  Config
	memo *lru.Cache[memoKey, *Resolved]
}

// Resolved is the outcome of running a fragment through every stage. It is
// immutable once returned; the same pointer is handed out to every caller
// that resolves an equal fragment against the same store version.
type Resolved struct {
	// Entities is the filtered, sorted list.
	Entities []*dataset.Entity

	// Categorised maps each resolved entity id to its sorted category ids.
	Categorised index.Categorised

	// Indexes holds the association indexes built for this resolution, for
	// downstream nesting and option counting against the same snapshot.
	Indexes *index.Set

	// Fragment is the query this resolution answered.
	Fragment query.Fragment

	// Ready is false when a dependency table had no snapshot yet. The rest
	// of the struct is then an empty placeholder.
	Ready bool
}

func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, memo: newMemo()}
}

func (p *Pipeline) Config() Config { return p.cfg }

// Resolve runs the fragment through the stage chain: subtype, attribute
// equality, keyword search, without, connections, categories, connected
// categories, then sort. Stages only ever narrow, so the result is a subset
// of the base table in every case.
func (p *Pipeline) Resolve(store *dataset.Store, frag query.Fragment) *Resolved {
	if !store.Ready(p.cfg.Dependencies...) {
		return &Resolved{
			Categorised: index.Categorised{},
			Fragment:    frag,
		}
	}

	key := memoKey{version: store.Version(), hash: frag.Hash()}
	if r, ok := p.memo.Get(key); ok {
		return r
	}

	idxs := index.BuildSet(store, p.cfg.Relations()...)
	entities := store.Table(p.cfg.Table).Sorted()

	if subtype, ok := frag.First(p.cfg.SubtypeQueryKey); ok {
		entities = BySubtype(entities, p.cfg.SubtypeKey, subtype)
	}
	entities = ByAttributes(entities, frag.WhereTokens())
	if term, ok := frag.First(query.KeySearch); ok {
		entities = ByKeywords(entities, term, p.cfg.SearchAttributes)
	}
	entities = WithoutAssociation(entities, p.cfg, store, idxs, frag.WithoutTokens())
	for _, connKey := range []string{query.KeyConnected, query.KeyTargeted, query.KeyMember, query.KeyGroup} {
		entities = ByConnection(entities, p.cfg, store, idxs, connKey, frag.ConnectionTokens(connKey))
	}
	entities = ByCategories(entities, store, p.categorise(store, idxs, entities), frag.Values(query.KeyCategory))
	entities = ByConnectedCategories(entities, p.cfg, store, idxs, frag.Values(query.KeyCategoryX))
	entities = Sort(entities, p.sortOption(frag))

	r := &Resolved{
		Entities:    entities,
		Categorised: p.categorise(store, idxs, entities),
		Indexes:     idxs,
		Fragment:    frag,
		Ready:       true,
	}
	p.memo.Add(key, r)
	return r
}

func (p *Pipeline) categorise(store *dataset.Store, idxs *index.Set, entities []*dataset.Entity) index.Categorised {
	return index.CategoryIDs(
		dataset.NewTable(entities...),
		idxs.For(p.cfg.CategoryRelation),
		store.Table(dataset.TableCategories),
	)
}

// sortOption picks the sort for a fragment: a declared option matching the
// sort key when present, the config default otherwise. An order token always
// wins over the option's own direction.
func (p *Pipeline) sortOption(frag query.Fragment) query.SortOption {
	opt := p.cfg.DefaultSort()
	if attr, ok := frag.First(query.KeySort); ok {
		if declared, ok := p.cfg.SortOptionFor(attr); ok {
			opt = declared
		}
	}
	if order, ok := frag.First(query.KeyOrder); ok {
		switch order {
		case "asc":
			opt.Order = query.Ascending
		case "desc":
			opt.Order = query.Descending
		}
	}
	return opt
}

// PageInfo describes one page of a resolved list.
type PageInfo struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
}

// Paginate slices a page out of a resolved list per the fragment's page and
// items tokens. Items "all", a missing items token, or a malformed token
// mean no paging; an out-of-range page clamps to the nearest valid page.
func Paginate(entities []*dataset.Entity, frag query.Fragment) ([]*dataset.Entity, PageInfo) {
	total := len(entities)
	items, ok := frag.First(query.KeyItems)
	perPage := 0
	if ok && items != "all" {
		if n, err := strconv.Atoi(items); err == nil && n > 0 {
			perPage = n
		}
	}
	if perPage == 0 {
		return entities, PageInfo{Page: 1, PerPage: total, Total: total, Pages: 1}
	}

	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	page := 1
	if raw, ok := frag.First(query.KeyPage); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	lo := (page - 1) * perPage
	hi := lo + perPage
	if hi > total {
		hi = total
	}
	return entities[lo:hi], PageInfo{Page: page, PerPage: perPage, Total: total, Pages: pages}
}
