package dataset

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotMeta records where a table's current contents came from.
// ReadyAt is the loader's "ready" timestamp; a zero ReadyAt means the table
// has not been delivered yet and every derivation depending on it must
// short-circuit to an empty placeholder.
type SnapshotMeta struct {
	ReadyAt time.Time
	Token   uuid.UUID // loader-issued snapshot token, for provenance
}

// Ready reports whether the table has been delivered.
func (m SnapshotMeta) Ready() bool {
	return !m.ReadyAt.IsZero()
}

// Store is the normalized in-memory copy of every backend table.
//
// A Store is immutable: ReplaceTable returns a new Store sharing all
// untouched tables with the old one. Version increases by one per
// replacement, which gives derivations a cheap memo key - two stores with
// the same Version hold identical data.
type Store struct {
	version uint64
	tables  map[string]Table
	meta    map[string]SnapshotMeta
}

// NewStore returns an empty store at version 0 with no tables ready.
func NewStore() *Store {
	return &Store{
		tables: make(map[string]Table),
		meta:   make(map[string]SnapshotMeta),
	}
}

// Version returns the store's monotonic snapshot version.
func (s *Store) Version() uint64 {
	return s.version
}

// Table returns the named table, empty when not yet delivered.
// Panics on an undeclared table name: that is a programmer error, not a data
// problem, and must fail loudly at the accessor boundary.
func (s *Store) Table(name string) Table {
	if !Declared(name) {
		panic(fmt.Sprintf("dataset: undeclared table %q", name))
	}
	return s.tables[name]
}

// Entity returns the entity with the given id from the named table.
// Returns (nil, false) for missing entities rather than failing - callers
// must nil-check. Undeclared table names panic, as with Table.
func (s *Store) Entity(name, id string) (*Entity, bool) {
	return s.Table(name).Get(id)
}

// Meta returns the snapshot metadata for the named table.
func (s *Store) Meta(name string) SnapshotMeta {
	if !Declared(name) {
		panic(fmt.Sprintf("dataset: undeclared table %q", name))
	}
	return s.meta[name]
}

// Ready reports whether every named dependency table has been delivered.
// Absence of a ready timestamp for any dependency means "not ready": callers
// return an empty placeholder rather than a partial result.
func (s *Store) Ready(deps ...string) bool {
	for _, dep := range deps {
		if !s.Meta(dep).Ready() {
			return false
		}
	}
	return true
}

// ReplaceTable returns a new Store with the named table replaced wholesale.
// Invalidation is table-granular: all other tables (and their metadata) are
// structurally shared with the receiver. Undeclared table names panic.
func (s *Store) ReplaceTable(name string, t Table, meta SnapshotMeta) *Store {
	if !Declared(name) {
		panic(fmt.Sprintf("dataset: undeclared table %q", name))
	}
	next := &Store{
		version: s.version + 1,
		tables:  make(map[string]Table, len(s.tables)+1),
		meta:    make(map[string]SnapshotMeta, len(s.meta)+1),
	}
	for k, v := range s.tables {
		next.tables[k] = v
	}
	for k, v := range s.meta {
		next.meta[k] = v
	}
	next.tables[name] = t
	next.meta[name] = meta
	return next
}
