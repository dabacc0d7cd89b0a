// Package connect materialises the connection side of a resolved entity:
// which entities it is linked to, grouped by their subtype, with group
// memberships folded in one level deep.
package connect

import (
	"slices"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/index"
)

// Ref is one connected entity. Indirect marks links reached through a group
// the entity belongs to rather than held directly.
type Ref struct {
	Entity   *dataset.Entity
	Indirect bool
}

// Grouped maps a subtype id to the connected entities of that subtype,
// ordered by id. Entities without a subtype attribute group under "".
type Grouped map[string][]Ref

// Nester answers connection lookups against one store snapshot, sharing the
// association indexes the snapshot's resolution already built.
type Nester struct {
	store *dataset.Store
	idxs  *index.Set
}

func New(store *dataset.Store, idxs *index.Set) *Nester {
	return &Nester{store: store, idxs: idxs}
}

// ActionsByType returns the actions an actor acts on, grouped by action
// type. With includeMembers, actions held by groups the actor belongs to
// join the result as indirect links; a direct link always wins over an
// indirect one to the same action.
func (n *Nester) ActionsByType(actorID string, includeMembers bool) Grouped {
	c := newCollector()
	c.direct(n.idxs.For(index.ActorActions).Members(actorID))
	if includeMembers {
		for _, groupID := range n.groupsOf(actorID) {
			c.indirect(n.idxs.For(index.ActorActions).Members(groupID))
		}
	}
	return c.group(n.store.Table(dataset.TableActions), "actiontype_id")
}

// TargetingActionsByType returns the actions targeting an actor, grouped by
// action type. With includeMembers, actions targeting the actor's groups
// join as indirect links.
func (n *Nester) TargetingActionsByType(actorID string, includeMembers bool) Grouped {
	c := newCollector()
	c.direct(n.idxs.For(index.ActionActors).Owners(actorID))
	if includeMembers {
		for _, groupID := range n.groupsOf(actorID) {
			c.indirect(n.idxs.For(index.ActionActors).Owners(groupID))
		}
	}
	return c.group(n.store.Table(dataset.TableActions), "actiontype_id")
}

// MembersByType returns the actors belonging to a group, grouped by actor
// type.
func (n *Nester) MembersByType(groupID string) Grouped {
	c := newCollector()
	c.direct(n.idxs.For(index.Memberships).Members(groupID))
	return c.group(n.store.Table(dataset.TableActors), "actortype_id")
}

// AssociationsByType returns the groups an actor belongs to, grouped by
// actor type.
func (n *Nester) AssociationsByType(actorID string) Grouped {
	c := newCollector()
	c.direct(n.groupsOf(actorID))
	return c.group(n.store.Table(dataset.TableActors), "actortype_id")
}

// ActorsByType returns the actors acting on an action, grouped by actor
// type.
func (n *Nester) ActorsByType(actionID string) Grouped {
	c := newCollector()
	c.direct(n.idxs.For(index.ActorActions).Owners(actionID))
	return c.group(n.store.Table(dataset.TableActors), "actortype_id")
}

// TargetsByType returns the actors an action targets, grouped by actor type.
func (n *Nester) TargetsByType(actionID string) Grouped {
	c := newCollector()
	c.direct(n.idxs.For(index.ActionActors).Members(actionID))
	return c.group(n.store.Table(dataset.TableActors), "actortype_id")
}

// groupsOf is membership one level up only. A group's own memberships are
// not followed.
func (n *Nester) groupsOf(actorID string) []string {
	return n.idxs.For(index.Memberships).Owners(actorID)
}

// collector dedupes connected ids while tracking provenance.
type collector struct {
	seen map[string]bool // id → indirect
	ids  []string
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) direct(ids []string) {
	for _, id := range ids {
		if _, ok := c.seen[id]; !ok {
			c.ids = append(c.ids, id)
		}
		c.seen[id] = false
	}
}

func (c *collector) indirect(ids []string) {
	for _, id := range ids {
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = true
		c.ids = append(c.ids, id)
	}
}

func (c *collector) group(table dataset.Table, subtypeKey string) Grouped {
	out := make(Grouped)
	slices.SortFunc(c.ids, dataset.CompareIDs)
	for _, id := range c.ids {
		e, ok := table.Get(id)
		if !ok {
			continue
		}
		key := ""
		if ref, ok := e.Ref(subtypeKey); ok {
			key = ref
		}
		out[key] = append(out[key], Ref{Entity: e, Indirect: c.seen[id]})
	}
	return out
}
