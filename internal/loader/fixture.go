package loader

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// fixtureDoc is the YAML layout used by tests and the demo harness: a ready
// timestamp plus rows per table.
type fixtureDoc struct {
	ReadyAt time.Time               `yaml:"ready_at"`
	Tables  map[string][]fixtureRow `yaml:"tables"`
}

type fixtureRow struct {
	ID         any            `yaml:"id"`
	Attributes map[string]any `yaml:"attributes"`
}

// ParseFixture decodes a YAML fixture into snapshots, one per table, in
// table-name order. A fixture without a ready_at is stamped with the current
// time; fixtures exist to be ready.
func ParseFixture(data []byte) ([]Snapshot, error) {
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	readyAt := doc.ReadyAt
	if readyAt.IsZero() {
		readyAt = time.Now()
	}

	names := make([]string, 0, len(doc.Tables))
	for name := range doc.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snap := Snapshot{Table: name, ReadyAt: readyAt}
		for _, row := range doc.Tables[name] {
			id := ""
			if row.ID != nil {
				id = fmt.Sprint(row.ID)
			}
			snap.Rows = append(snap.Rows, Row{ID: id, Attributes: row.Attributes})
		}
		out = append(out, snap)
	}
	return out, nil
}
