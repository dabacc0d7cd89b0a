// Package loader feeds the normalized store: it parses per-table snapshots
// from the remote data format, persists them in a local SQLite cache and
// replays them into immutable store versions.
package loader

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trellisdata/trellis/internal/dataset"
)

// Row is one raw entity row as delivered by the remote loader.
type Row struct {
	ID         string
	Attributes map[string]any
}

// Snapshot is a full replacement for one table: the rows plus the moment
// the data was complete. A table without a snapshot is not ready.
type Snapshot struct {
	Table   string
	Rows    []Row
	ReadyAt time.Time
}

// Apply folds a snapshot into the store, producing the next version. Rows
// without an id are dropped; undeclared tables are rejected, since a wrong
// table name is a programmer error rather than a data problem.
func Apply(store *dataset.Store, snap Snapshot) (*dataset.Store, error) {
	if !dataset.Declared(snap.Table) {
		return nil, fmt.Errorf("apply snapshot: undeclared table %q", snap.Table)
	}
	entities := make([]*dataset.Entity, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		if row.ID == "" {
			continue
		}
		entities = append(entities, dataset.NewEntity(row.ID, row.Attributes))
	}
	meta := dataset.SnapshotMeta{ReadyAt: snap.ReadyAt, Token: uuid.New()}
	return store.ReplaceTable(snap.Table, dataset.NewTable(entities...), meta), nil
}

// ApplyAll folds snapshots in order, so a later snapshot for the same table
// wins.
func ApplyAll(store *dataset.Store, snaps []Snapshot) (*dataset.Store, error) {
	out := store
	for _, snap := range snaps {
		next, err := Apply(out, snap)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
