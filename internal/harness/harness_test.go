package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)
		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestLoadScenarioValidation(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	assert.Error(t, err)
}

func TestRunUnknownList(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", List: "widgets"})
	assert.ErrorContains(t, err, "unknown list")
}

func TestCheckFailures(t *testing.T) {
	scenario := &Scenario{
		Name: "x",
		List: "actors",
		Assertions: []Assertion{
			{Type: "ids", Query: "cat=10", IDs: []string{"1"}},
		},
	}
	result := &Result{
		Scenario: scenario,
		Views:    []View{{Query: "cat=10", IDs: []string{"1", "3"}, Total: 2}},
	}
	assert.ErrorContains(t, Check(result), "resolved")

	scenario.Assertions[0].IDs = []string{"1", "3"}
	assert.NoError(t, Check(result))

	scenario.Assertions = []Assertion{{Type: "count", Query: "missing"}}
	assert.ErrorContains(t, Check(result), "was not run")

	scenario.Assertions = []Assertion{{Type: "nope", Query: "cat=10"}}
	assert.ErrorContains(t, Check(result), "unknown type")
}
