// Package harness runs conformance scenarios against the query engine: a
// YAML scenario names a fixture dataset, a list configuration and a set of
// query fragments, and the resolved views are compared against golden
// snapshots and inline assertions.
package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/trellisdata/trellis/internal/dataset"
	"github.com/trellisdata/trellis/internal/listconfig"
	"github.com/trellisdata/trellis/internal/loader"
	"github.com/trellisdata/trellis/internal/pipeline"
	"github.com/trellisdata/trellis/internal/query"
)

// Scenario defines one conformance run.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// List names the list configuration to resolve against.
	List string `yaml:"list"`

	// Fixture is the path to the fixture dataset, relative to the scenario
	// file.
	Fixture string `yaml:"fixture"`

	// Queries are the raw query fragments to resolve, in order.
	Queries []string `yaml:"queries"`

	// Assertions validate individual views beyond the golden comparison.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is where the scenario file lives, for resolving the fixture path.
	dir string
}

// Assertion checks one resolved view. Supported types: "ids" (exact id
// sequence) and "count".
type Assertion struct {
	Type  string   `yaml:"type"`
	Query string   `yaml:"query"`
	IDs   []string `yaml:"ids,omitempty"`
	Count int      `yaml:"count,omitempty"`
}

// View is the outcome of one query against the fixture store.
type View struct {
	Query string
	IDs   []string
	Total int
}

// Result collects the views of a scenario run, in query order.
type Result struct {
	Scenario *Scenario
	Views    []View
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("load scenario %s: name is required", path)
	}
	if s.List == "" {
		return nil, fmt.Errorf("load scenario %s: list is required", path)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

// Run builds the fixture store and resolves every query of the scenario.
func Run(scenario *Scenario) (*Result, error) {
	cfg, ok := listconfig.Builtin()[scenario.List]
	if !ok {
		return nil, fmt.Errorf("scenario %s: unknown list %q", scenario.Name, scenario.List)
	}

	store, err := fixtureStore(scenario)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(cfg)
	result := &Result{Scenario: scenario}
	for _, raw := range scenario.Queries {
		r := p.Resolve(store, query.Parse(raw))
		if !r.Ready {
			return nil, fmt.Errorf("scenario %s: store not ready for query %q", scenario.Name, raw)
		}
		view := View{Query: raw, Total: len(r.Entities)}
		for _, e := range r.Entities {
			view.IDs = append(view.IDs, e.ID)
		}
		result.Views = append(result.Views, view)
	}
	return result, nil
}

func fixtureStore(scenario *Scenario) (*dataset.Store, error) {
	path := scenario.Fixture
	if !filepath.IsAbs(path) {
		path = filepath.Join(scenario.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	snaps, err := loader.ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return loader.ApplyAll(dataset.NewStore(), snaps)
}

// Check validates the scenario's inline assertions against a run.
func Check(result *Result) error {
	views := make(map[string]View, len(result.Views))
	for _, v := range result.Views {
		views[v.Query] = v
	}
	for i, a := range result.Scenario.Assertions {
		view, ok := views[a.Query]
		if !ok {
			return fmt.Errorf("assertion %d: query %q was not run", i, a.Query)
		}
		switch a.Type {
		case "ids":
			if !equalIDs(view.IDs, a.IDs) {
				return fmt.Errorf("assertion %d: query %q resolved %v, want %v", i, a.Query, view.IDs, a.IDs)
			}
		case "count":
			if view.Total != a.Count {
				return fmt.Errorf("assertion %d: query %q resolved %d entities, want %d", i, a.Query, view.Total, a.Count)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
