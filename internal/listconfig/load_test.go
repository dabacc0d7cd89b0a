package listconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
	"github.com/trellisdata/trellis/internal/query"
)

func TestBuiltin(t *testing.T) {
	cfgs := Builtin()
	assert.Equal(t, []string{"actions", "actors"}, Names(cfgs))

	actors := cfgs["actors"]
	assert.Equal(t, dataset.TableActors, actors.Table)
	assert.Equal(t, "actortype_id", actors.SubtypeKey)
	assert.Equal(t, query.KeyActorType, actors.SubtypeQueryKey)
	assert.Equal(t, index.ActorCategories, actors.CategoryRelation)
	assert.Contains(t, actors.SearchAttributes, "title")

	def := actors.DefaultSort()
	assert.Equal(t, "title", def.Attribute)
	assert.Equal(t, query.SortString, def.Type)

	actions, ok := actors.ConnectionByName("actions")
	require.True(t, ok)
	assert.True(t, actions.EntityIsOwner)
	assert.True(t, actions.GroupByType)
	assert.Equal(t, index.ActorActions, actions.Relation)
	assert.Equal(t, index.ActionCategories, actions.CategoryRelation)

	typed, ok := actors.ConnectionByName("actions_3")
	require.True(t, ok, "typed token names resolve to the base connection")
	assert.Equal(t, "actions", typed.Name)
}

func TestBuiltinActionList(t *testing.T) {
	cfgs := Builtin()
	actions := cfgs["actions"]

	assert.Equal(t, dataset.TableActions, actions.Table)
	assert.Equal(t, query.KeyActionType, actions.SubtypeQueryKey)

	actorsConn, ok := actions.ConnectionByName("actors")
	require.True(t, ok)
	assert.False(t, actorsConn.EntityIsOwner, "the action is the member side of actor_actions")

	targets, ok := actions.ConnectionByName("targets")
	require.True(t, ok)
	assert.True(t, targets.EntityIsOwner)
	assert.Equal(t, index.ActionActors, targets.Relation)
}

func TestLoadRejectsUnknownRelation(t *testing.T) {
	src := []byte(`
lists: broken: {
	table:            "actors"
	subtypeKey:       "actortype_id"
	subtypeQueryKey:  "actortype"
	categoryRelation: "no_such_table"
	applicability:    "actor_type_taxonomies"
}
`)
	_, err := Load(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestLoadRejectsUnknownTable(t *testing.T) {
	src := []byte(`
lists: broken: {
	table:            "widgets"
	subtypeKey:       "t"
	subtypeQueryKey:  "q"
	categoryRelation: "actor_categories"
	applicability:    "actor_type_taxonomies"
}
`)
	_, err := Load(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widgets")
}

func TestLoadRejectsMissingField(t *testing.T) {
	src := []byte(`
lists: broken: {
	subtypeKey: "t"
}
`)
	_, err := Load(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table")
}
