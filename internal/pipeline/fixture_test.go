package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/query"
	"github.com/trellisdata/trellis/internal/taxonomy"
)

// testStore builds the actor roster used across the pipeline tests:
//
//	actor 1  Global Fund    type 1  sector 10  acts on 100, group of 2
//	actor 2  Acme Corp      type 2  sector 11  acts on 100 and 101
//	actor 3  Zed Collective type 2  sector 10  draft, targeted by 100
//	actor 4  beta works     type 1  untagged, unconnected
func testStore(t *testing.T) *dataset.Store {
	t.Helper()
	s := dataset.NewStore()
	meta := dataset.SnapshotMeta{ReadyAt: time.Now(), Token: uuid.New()}
	add := func(name string, entities ...*dataset.Entity) {
		s = s.ReplaceTable(name, dataset.NewTable(entities...), meta)
	}

	add(dataset.TableTaxonomies,
		dataset.NewEntity("1", map[string]any{"title": "Sector", "priority": 1}),
		dataset.NewEntity("2", map[string]any{"title": "Status", "priority": 2}),
	)
	add(dataset.TableCategories,
		dataset.NewEntity("10", map[string]any{"taxonomy_id": 1, "title": "Civil society"}),
		dataset.NewEntity("11", map[string]any{"taxonomy_id": 1, "title": "Private sector"}),
		dataset.NewEntity("20", map[string]any{"taxonomy_id": 2, "title": "Active"}),
	)
	add(dataset.TableActors,
		dataset.NewEntity("1", map[string]any{
			"title": "Global Fund", "actortype_id": 1, "code": "GF",
			"created_at": "2024-01-10", "draft": false,
		}),
		dataset.NewEntity("2", map[string]any{
			"title": "Acme Corp", "actortype_id": 2, "code": "ACME",
			"created_at": "2023-06-01", "draft": false,
		}),
		dataset.NewEntity("3", map[string]any{
			"title": "Zed Collective", "actortype_id": 2, "draft": true,
		}),
		dataset.NewEntity("4", map[string]any{
			"title": "beta works", "actortype_id": 1, "created_at": "2024-03-05",
		}),
	)
	add(dataset.TableActions,
		dataset.NewEntity("100", map[string]any{"title": "Fund malaria response", "actiontype_id": 1}),
		dataset.NewEntity("101", map[string]any{"title": "Policy review", "actiontype_id": 2}),
	)
	add(dataset.TableActorCategories,
		dataset.NewEntity("1", map[string]any{"actor_id": 1, "category_id": 10}),
		dataset.NewEntity("2", map[string]any{"actor_id": 2, "category_id": 11}),
		dataset.NewEntity("3", map[string]any{"actor_id": 3, "category_id": 10}),
	)
	add(dataset.TableActionCategories,
		dataset.NewEntity("1", map[string]any{"action_id": 100, "category_id": 20}),
	)
	add(dataset.TableActorActions,
		dataset.NewEntity("1", map[string]any{"actor_id": 1, "action_id": 100}),
		dataset.NewEntity("2", map[string]any{"actor_id": 2, "action_id": 100}),
		dataset.NewEntity("3", map[string]any{"actor_id": 2, "action_id": 101}),
	)
	add(dataset.TableActionActors,
		dataset.NewEntity("1", map[string]any{"action_id": 100, "actor_id": 3}),
	)
	add(dataset.TableMemberships,
		dataset.NewEntity("1", map[string]any{"group_id": 1, "member_id": 2}),
	)
	return s
}

func actorConfig() Config {
	return Config{
		Name:             "actors",
		Table:            dataset.TableActors,
		SubtypeKey:       "actortype_id",
		SubtypeQueryKey:  query.KeyActorType,
		CategoryRelation: index.ActorCategories,
		Applicability:    taxonomy.ActorTypes,
		SearchAttributes: []string{"title", "code"},
		SortOptions: []query.SortOption{
			{Attribute: "title", Type: query.SortString, Order: query.Ascending, Default: true},
			{Attribute: "created_at", Type: query.SortDate, Order: query.Descending},
			{Attribute: "actortype_id", Type: query.SortNumber, Order: query.Ascending},
		},
		Connections: []query.ConnectionFilterSpec{
			{
				Name: "actions", Label: "Activities", QueryKey: query.KeyConnected,
				Relation: index.ActorActions, EntityIsOwner: true,
				SubtypeKey: "actiontype_id", GroupByType: true,
				CategoryRelation: index.ActionCategories,
			},
			{
				Name: "targeting-actions", Label: "Targeted by", QueryKey: query.KeyTargeted,
				Relation: index.ActionActors, EntityIsOwner: false,
				SubtypeKey: "actiontype_id",
				CategoryRelation: index.ActionCategories,
			},
			{
				Name: "members", Label: "Members", QueryKey: query.KeyMember,
				Relation: index.Memberships, EntityIsOwner: true,
				SubtypeKey: "actortype_id",
			},
			{
				Name: "associations", Label: "Member of", QueryKey: query.KeyGroup,
				Relation: index.Memberships, EntityIsOwner: false,
				SubtypeKey: "actortype_id",
			},
		},
		Dependencies: []string{
			dataset.TableActors, dataset.TableActions,
			dataset.TableTaxonomies, dataset.TableCategories,
			dataset.TableActorCategories, dataset.TableActionCategories,
			dataset.TableActorActions, dataset.TableActionActors,
			dataset.TableMemberships,
		},
	}
}

func ids(entities []*dataset.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}
