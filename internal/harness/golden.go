package harness

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/sebdah/goldie/v2"
)

// toCanonicalMap flattens a result for canonical JSON serialization. Keys
// serialize in sorted order so golden files are byte-stable.
func (r *Result) toCanonicalMap() map[string]any {
	views := make([]any, len(r.Views))
	for i, v := range r.Views {
		ids := make([]any, len(v.IDs))
		for j, id := range v.IDs {
			ids[j] = id
		}
		views[i] = map[string]any{
			"query": v.Query,
			"ids":   ids,
			"total": v.Total,
		}
	}
	return map[string]any{
		"scenario": r.Scenario.Name,
		"list":     r.Scenario.List,
		"views":    views,
	}
}

// RunWithGolden executes a scenario, checks its inline assertions and
// compares the resolved views against the golden file in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := Check(result); err != nil {
		return err
	}

	snapshot := []byte(oj.JSON(result.toCanonicalMap(), &oj.Options{Sort: true}))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return nil
}
