package index

import (
	"github.com/RoaringBitmap/roaring"
)

// Arena assigns dense uint32 handles to string entity ids so id sets can be
// held in roaring bitmaps. Handles are only meaningful within the arena that
// issued them.
type Arena struct {
	handles map[string]uint32
	ids     []string // reverse: handle -> id
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{handles: make(map[string]uint32)}
}

// Intern returns the handle for id, assigning the next free one on first use.
func (a *Arena) Intern(id string) uint32 {
	if h, ok := a.handles[id]; ok {
		return h
	}
	h := uint32(len(a.ids))
	a.handles[id] = h
	a.ids = append(a.ids, id)
	return h
}

// Lookup returns the handle for id without interning.
func (a *Arena) Lookup(id string) (uint32, bool) {
	h, ok := a.handles[id]
	return h, ok
}

// ID returns the id for a handle issued by this arena.
func (a *Arena) ID(h uint32) string {
	return a.ids[h]
}

// Len returns the number of interned ids.
func (a *Arena) Len() int {
	return len(a.ids)
}

// Bitmap returns the set of handles for the given ids, skipping ids the
// arena has never seen. Unknown ids are not an error: a stale query token
// naming a deleted entity simply contributes nothing to the set.
func (a *Arena) Bitmap(ids []string) *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range ids {
		if h, ok := a.handles[id]; ok {
			bm.Add(h)
		}
	}
	return bm
}

// IDs resolves a bitmap of handles back to a slice of ids, in handle order.
func (a *Arena) IDs(bm *roaring.Bitmap) []string {
	if bm == nil {
		return nil
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, a.ids[it.Next()])
	}
	return out
}
