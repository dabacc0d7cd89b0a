package connect

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
)

// Fixture: actor 1 is a group holding actors 2 and 3. The group acts on
// action 102 and is targeted by action 103. Actor 2 acts on 100 and 101
// directly; action 100 targets actor 3.
func testNester(t *testing.T) *Nester {
	t.Helper()
	s := dataset.NewStore()
	meta := dataset.SnapshotMeta{ReadyAt: time.Now(), Token: uuid.New()}
	add := func(name string, entities ...*dataset.Entity) {
		s = s.ReplaceTable(name, dataset.NewTable(entities...), meta)
	}

	add(dataset.TableActors,
		dataset.NewEntity("1", map[string]any{"title": "Coalition", "actortype_id": 3}),
		dataset.NewEntity("2", map[string]any{"title": "Acme Corp", "actortype_id": 2}),
		dataset.NewEntity("3", map[string]any{"title": "Zed Collective", "actortype_id": 2}),
	)
	add(dataset.TableActions,
		dataset.NewEntity("100", map[string]any{"title": "Fund response", "actiontype_id": 1}),
		dataset.NewEntity("101", map[string]any{"title": "Policy review", "actiontype_id": 2}),
		dataset.NewEntity("102", map[string]any{"title": "Joint statement", "actiontype_id": 1}),
		dataset.NewEntity("103", map[string]any{"title": "Sanction", "actiontype_id": 2}),
	)
	add(dataset.TableActorActions,
		dataset.NewEntity("1", map[string]any{"actor_id": 2, "action_id": 100}),
		dataset.NewEntity("2", map[string]any{"actor_id": 2, "action_id": 101}),
		dataset.NewEntity("3", map[string]any{"actor_id": 1, "action_id": 102}),
	)
	add(dataset.TableActionActors,
		dataset.NewEntity("1", map[string]any{"action_id": 100, "actor_id": 3}),
		dataset.NewEntity("2", map[string]any{"action_id": 103, "actor_id": 1}),
	)
	add(dataset.TableMemberships,
		dataset.NewEntity("1", map[string]any{"group_id": 1, "member_id": 2}),
		dataset.NewEntity("2", map[string]any{"group_id": 1, "member_id": 3}),
	)

	idxs := index.BuildSet(s, index.ActorActions, index.ActionActors, index.Memberships)
	return New(s, idxs)
}

func refIDs(refs []Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Entity.ID)
	}
	return out
}

func TestActionsByType(t *testing.T) {
	n := testNester(t)

	t.Run("direct only", func(t *testing.T) {
		got := n.ActionsByType("2", false)
		require.Len(t, got, 2)
		assert.Equal(t, []string{"100"}, refIDs(got["1"]))
		assert.Equal(t, []string{"101"}, refIDs(got["2"]))
	})

	t.Run("group actions join as indirect", func(t *testing.T) {
		got := n.ActionsByType("2", true)
		assert.Equal(t, []string{"100", "102"}, refIDs(got["1"]))
		assert.False(t, got["1"][0].Indirect)
		assert.True(t, got["1"][1].Indirect)
	})

	t.Run("direct link wins over indirect duplicate", func(t *testing.T) {
		// Actor 1 acts on 102 directly and is nobody's member.
		got := n.ActionsByType("1", true)
		require.Len(t, got["1"], 1)
		assert.False(t, got["1"][0].Indirect)
	})
}

func TestTargetingActionsByType(t *testing.T) {
	n := testNester(t)

	t.Run("direct targeting", func(t *testing.T) {
		got := n.TargetingActionsByType("3", false)
		assert.Equal(t, []string{"100"}, refIDs(got["1"]))
	})

	t.Run("actions targeting the group are indirect", func(t *testing.T) {
		got := n.TargetingActionsByType("3", true)
		assert.Equal(t, []string{"100"}, refIDs(got["1"]))
		require.Len(t, got["2"], 1)
		assert.Equal(t, "103", got["2"][0].Entity.ID)
		assert.True(t, got["2"][0].Indirect)
	})
}

func TestMembershipNesting(t *testing.T) {
	n := testNester(t)

	members := n.MembersByType("1")
	assert.Equal(t, []string{"2", "3"}, refIDs(members["2"]))

	groups := n.AssociationsByType("2")
	assert.Equal(t, []string{"1"}, refIDs(groups["3"]))

	assert.Empty(t, n.AssociationsByType("1"))
}

func TestActionSideNesting(t *testing.T) {
	n := testNester(t)

	actors := n.ActorsByType("100")
	assert.Equal(t, []string{"2"}, refIDs(actors["2"]))

	targets := n.TargetsByType("100")
	assert.Equal(t, []string{"3"}, refIDs(targets["2"]))

	assert.Empty(t, n.TargetsByType("101"))
}
