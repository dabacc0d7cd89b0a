package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/query"
)

func TestSort(t *testing.T) {
	store := testStore(t)
	all := store.Table(dataset.TableActors).Sorted()

	tests := []struct {
		name string
		opt  query.SortOption
		want []string
	}{
		{
			name: "string ascending ignores case",
			opt:  query.SortOption{Attribute: "title", Type: query.SortString, Order: query.Ascending},
			want: []string{"2", "4", "1", "3"},
		},
		{
			name: "string descending",
			opt:  query.SortOption{Attribute: "title", Type: query.SortString, Order: query.Descending},
			want: []string{"3", "1", "4", "2"},
		},
		{
			name: "date descending puts missing last",
			opt:  query.SortOption{Attribute: "created_at", Type: query.SortDate, Order: query.Descending},
			want: []string{"4", "1", "2", "3"},
		},
		{
			name: "date ascending puts missing last too",
			opt:  query.SortOption{Attribute: "created_at", Type: query.SortDate, Order: query.Ascending},
			want: []string{"2", "1", "4", "3"},
		},
		{
			name: "number ties break by id",
			opt:  query.SortOption{Attribute: "actortype_id", Type: query.SortNumber, Order: query.Ascending},
			want: []string{"1", "4", "2", "3"},
		},
		{
			name: "unknown attribute keeps id order",
			opt:  query.SortOption{Attribute: "nope", Type: query.SortString, Order: query.Ascending},
			want: []string{"1", "2", "3", "4"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sort(all, tc.opt)
			assert.Equal(t, tc.want, ids(got))
			assert.Equal(t, []string{"1", "2", "3", "4"}, ids(all), "input must not be reordered")
		})
	}
}

func TestSortDeterministic(t *testing.T) {
	store := testStore(t)
	all := store.Table(dataset.TableActors).Sorted()
	opt := query.SortOption{Attribute: "title", Type: query.SortString, Order: query.Ascending}

	first := ids(Sort(all, opt))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids(Sort(all, opt)))
	}
}
