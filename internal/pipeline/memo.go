package pipeline

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// memoEntries bounds the resolution cache. Each entry is a resolved view for
// one (store version, fragment) pair; entries for older store versions age
// out naturally as new versions are queried.
const memoEntries = 256

// memoKey identifies a resolution. Two resolutions share a result exactly
// when they saw the same store version and a canonically equal fragment.
type memoKey struct {
	version uint64
	hash    string
}

func newMemo() *lru.Cache[memoKey, *Resolved] {
	c, err := lru.New[memoKey, *Resolved](memoEntries)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	return c
}
