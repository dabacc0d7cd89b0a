package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/query"
)

func TestResolve(t *testing.T) {
	store := testStore(t)
	p := New(actorConfig())

	tests := []struct {
		name     string
		rawQuery string
		want     []string
	}{
		{
			name:     "no filters sorts by default title",
			rawQuery: "",
			want:     []string{"2", "4", "1", "3"},
		},
		{
			name:     "subtype scope",
			rawQuery: "actortype=2",
			want:     []string{"2", "3"},
		},
		{
			name:     "attribute and connection narrow together",
			rawQuery: "where=draft:false&connected=actions:100",
			want:     []string{"2", "1"},
		},
		{
			name:     "category filter",
			rawQuery: "cat=10",
			want:     []string{"1", "3"},
		},
		{
			name:     "connected category",
			rawQuery: "catx=20&where=draft:false",
			want:     []string{"2", "1"},
		},
		{
			name:     "without taxonomy",
			rawQuery: "without=1",
			want:     []string{"4"},
		},
		{
			name:     "search with sort override",
			rawQuery: "sort=created_at&order=asc",
			want:     []string{"2", "1", "4", "3"},
		},
		{
			name:     "unknown sort key falls back to default",
			rawQuery: "sort=nope",
			want:     []string{"2", "4", "1", "3"},
		},
		{
			name:     "order token flips the default",
			rawQuery: "order=desc",
			want:     []string{"3", "1", "4", "2"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := p.Resolve(store, query.Parse(tc.rawQuery))
			require.True(t, r.Ready)
			assert.Equal(t, tc.want, ids(r.Entities))
		})
	}
}

func TestResolveIsSubsetAndIdempotent(t *testing.T) {
	store := testStore(t)
	p := New(actorConfig())
	frag := query.Parse("actortype=2&cat=10&connected=actions:100")

	first := p.Resolve(store, frag)
	second := p.Resolve(store, frag)
	assert.Equal(t, ids(first.Entities), ids(second.Entities))

	base := store.Table(dataset.TableActors)
	for _, e := range first.Entities {
		_, ok := base.Get(e.ID)
		assert.True(t, ok, "resolved entity %s must come from the base table", e.ID)
	}
}

func TestResolveCategorised(t *testing.T) {
	store := testStore(t)
	p := New(actorConfig())

	r := p.Resolve(store, query.Parse("cat=10"))
	require.True(t, r.Ready)
	require.Len(t, r.Entities, 2)

	assert.Equal(t, []string{"10"}, r.Categorised["1"])
	assert.Equal(t, []string{"10"}, r.Categorised["3"])
	assert.NotContains(t, r.Categorised, "2")
}

func TestResolveMemoisation(t *testing.T) {
	store := testStore(t)
	p := New(actorConfig())

	a := p.Resolve(store, query.Parse("connected=actions:100&where=draft:false"))
	b := p.Resolve(store, query.Parse("where=draft:false&connected=actions:100"))
	assert.Same(t, a, b, "canonically equal fragments share a resolution")

	meta := dataset.SnapshotMeta{ReadyAt: time.Now(), Token: uuid.New()}
	next := store.ReplaceTable(dataset.TableActors, store.Table(dataset.TableActors), meta)
	c := p.Resolve(next, query.Parse("where=draft:false&connected=actions:100"))
	assert.NotSame(t, a, c, "a new store version never reuses an old resolution")
	assert.Equal(t, ids(a.Entities), ids(c.Entities))
}

func TestResolveNotReady(t *testing.T) {
	p := New(actorConfig())

	r := p.Resolve(dataset.NewStore(), query.Parse("cat=10"))
	assert.False(t, r.Ready)
	assert.Empty(t, r.Entities)
	assert.NotNil(t, r.Categorised)
}

func TestPaginate(t *testing.T) {
	store := testStore(t)
	p := New(actorConfig())
	r := p.Resolve(store, query.Parse(""))
	require.Len(t, r.Entities, 4)

	tests := []struct {
		name     string
		rawQuery string
		want     []string
		info     PageInfo
	}{
		{
			name:     "second page",
			rawQuery: "items=2&page=2",
			want:     []string{"1", "3"},
			info:     PageInfo{Page: 2, PerPage: 2, Total: 4, Pages: 2},
		},
		{
			name:     "items all disables paging",
			rawQuery: "items=all",
			want:     []string{"2", "4", "1", "3"},
			info:     PageInfo{Page: 1, PerPage: 4, Total: 4, Pages: 1},
		},
		{
			name:     "page clamps to last",
			rawQuery: "items=3&page=9",
			want:     []string{"3"},
			info:     PageInfo{Page: 2, PerPage: 3, Total: 4, Pages: 2},
		},
		{
			name:     "malformed items disables paging",
			rawQuery: "items=lots",
			want:     []string{"2", "4", "1", "3"},
			info:     PageInfo{Page: 1, PerPage: 4, Total: 4, Pages: 1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, info := Paginate(r.Entities, query.Parse(tc.rawQuery))
			assert.Equal(t, tc.want, ids(got))
			assert.Equal(t, tc.info, info)
		})
	}
}
