package index

import (
	"slices"

	"github.com/RoaringBitmap/roaring"

	"github.com/trellisdata/trellis/internal/dataset"
)

// Relation declares one join table: which table holds the edges and which
// entity tables its two foreign keys must resolve into.
type Relation struct {
	Table       string // join table holding the edges
	OwnerKey    string // foreign key naming the owner entity
	OwnerTable  string
	MemberKey   string // foreign key naming the member entity
	MemberTable string
}

// The declared relations of the dataset.
var (
	ActorCategories = Relation{
		Table:       dataset.TableActorCategories,
		OwnerKey:    "actor_id",
		OwnerTable:  dataset.TableActors,
		MemberKey:   "category_id",
		MemberTable: dataset.TableCategories,
	}
	ActionCategories = Relation{
		Table:       dataset.TableActionCategories,
		OwnerKey:    "action_id",
		OwnerTable:  dataset.TableActions,
		MemberKey:   "category_id",
		MemberTable: dataset.TableCategories,
	}
	ActorActions = Relation{
		Table:       dataset.TableActorActions,
		OwnerKey:    "actor_id",
		OwnerTable:  dataset.TableActors,
		MemberKey:   "action_id",
		MemberTable: dataset.TableActions,
	}
	// ActionActors links actions with the actors they target.
	ActionActors = Relation{
		Table:       dataset.TableActionActors,
		OwnerKey:    "action_id",
		OwnerTable:  dataset.TableActions,
		MemberKey:   "actor_id",
		MemberTable: dataset.TableActors,
	}
	// Memberships is the actor-actor relation: the owner is the group, the
	// member is the actor belonging to it.
	Memberships = Relation{
		Table:       dataset.TableMemberships,
		OwnerKey:    "group_id",
		OwnerTable:  dataset.TableActors,
		MemberKey:   "member_id",
		MemberTable: dataset.TableActors,
	}
	UserCategories = Relation{
		Table:       dataset.TableUserCategories,
		OwnerKey:    "user_id",
		OwnerTable:  dataset.TableUsers,
		MemberKey:   "category_id",
		MemberTable: dataset.TableCategories,
	}
)

// Index is the bidirectional adjacency of one relation. Both directions are
// built in the same pass since most relations are consumed from both ends.
type Index struct {
	rel Relation

	owners  *Arena
	members *Arena
	forward map[string]*roaring.Bitmap // owner id -> member handles
	reverse map[string]*roaring.Bitmap // member id -> owner handles
}

// Build indexes the relation's join table against the given store snapshot.
// Cost is O(n) in the number of join rows. Rows whose owner or member id
// does not resolve to an existing entity are dropped here - fail-soft, not
// fail-fast - so group lookups for a dangling edge return an empty list, not
// an error.
func Build(store *dataset.Store, rel Relation) *Index {
	idx := &Index{
		rel:     rel,
		owners:  NewArena(),
		members: NewArena(),
		forward: make(map[string]*roaring.Bitmap),
		reverse: make(map[string]*roaring.Bitmap),
	}

	ownerTable := store.Table(rel.OwnerTable)
	memberTable := store.Table(rel.MemberTable)

	for _, row := range store.Table(rel.Table) {
		ownerID, ok := row.Ref(rel.OwnerKey)
		if !ok {
			continue
		}
		memberID, ok := row.Ref(rel.MemberKey)
		if !ok {
			continue
		}
		if _, ok := ownerTable.Get(ownerID); !ok {
			continue
		}
		if _, ok := memberTable.Get(memberID); !ok {
			continue
		}
		idx.add(ownerID, memberID)
	}
	return idx
}

func (idx *Index) add(ownerID, memberID string) {
	oh := idx.owners.Intern(ownerID)
	mh := idx.members.Intern(memberID)

	fwd, ok := idx.forward[ownerID]
	if !ok {
		fwd = roaring.New()
		idx.forward[ownerID] = fwd
	}
	fwd.Add(mh)

	rev, ok := idx.reverse[memberID]
	if !ok {
		rev = roaring.New()
		idx.reverse[memberID] = rev
	}
	rev.Add(oh)
}

// Relation returns the relation this index was built for.
func (idx *Index) Relation() Relation {
	return idx.rel
}

// Members returns the member ids linked to the owner, in deterministic id
// order. Empty for unknown owners.
func (idx *Index) Members(ownerID string) []string {
	return sortedIDs(idx.members.IDs(idx.forward[ownerID]))
}

// Owners returns the owner ids linked to the member, in deterministic id
// order. Empty for unknown members.
func (idx *Index) Owners(memberID string) []string {
	return sortedIDs(idx.owners.IDs(idx.reverse[memberID]))
}

// HasMembers reports whether the owner has at least one (non-dangling) edge.
func (idx *Index) HasMembers(ownerID string) bool {
	bm, ok := idx.forward[ownerID]
	return ok && !bm.IsEmpty()
}

// HasEdge reports whether the exact (owner, member) edge exists.
func (idx *Index) HasEdge(ownerID, memberID string) bool {
	bm, ok := idx.forward[ownerID]
	if !ok {
		return false
	}
	mh, ok := idx.members.Lookup(memberID)
	return ok && bm.Contains(mh)
}

// MemberSet returns the handle set for the given member ids, for repeated
// intersection against owners' adjacency. Ids the relation never saw are
// skipped.
func (idx *Index) MemberSet(memberIDs []string) *roaring.Bitmap {
	return idx.members.Bitmap(memberIDs)
}

// IntersectsMembers reports whether the owner is linked to any member in the
// set (as produced by MemberSet). Intersection over bitmaps keeps the filter
// stages linear in the entity count.
func (idx *Index) IntersectsMembers(ownerID string, set *roaring.Bitmap) bool {
	bm, ok := idx.forward[ownerID]
	return ok && set != nil && bm.Intersects(set)
}

// OwnerSet returns the handle set for the given owner ids, the reverse
// counterpart of MemberSet.
func (idx *Index) OwnerSet(ownerIDs []string) *roaring.Bitmap {
	return idx.owners.Bitmap(ownerIDs)
}

// IntersectsOwners reports whether the member is linked to any owner in the
// set (as produced by OwnerSet).
func (idx *Index) IntersectsOwners(memberID string, set *roaring.Bitmap) bool {
	bm, ok := idx.reverse[memberID]
	return ok && set != nil && bm.Intersects(set)
}

// HasOwners reports whether the member has at least one (non-dangling) edge.
func (idx *Index) HasOwners(memberID string) bool {
	bm, ok := idx.reverse[memberID]
	return ok && !bm.IsEmpty()
}

func sortedIDs(ids []string) []string {
	slices.SortFunc(ids, dataset.CompareIDs)
	return ids
}
