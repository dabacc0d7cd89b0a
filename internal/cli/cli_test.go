package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "list", "actors", "--fixture", "testdata/base.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t,
		"list", "actors",
		"--fixture", "testdata/base.yaml",
		"--query", "cat=10",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Global Fund")
	assert.Contains(t, out, "Zed Collective")
	assert.NotContains(t, out, "Acme Corp")
}

func TestListCommandJSON(t *testing.T) {
	out, err := execute(t,
		"--format", "json",
		"list", "actors",
		"--fixture", "testdata/base.yaml",
		"--query", "without=1",
	)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ListResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "4", result.Rows[0].ID)
}

func TestListCommandRequiresSource(t *testing.T) {
	_, err := execute(t, "list", "actors")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListCommandUnknownList(t *testing.T) {
	_, err := execute(t, "list", "widgets", "--fixture", "testdata/base.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown list")
}

func TestShowCommand(t *testing.T) {
	out, err := execute(t,
		"show", "actors", "2",
		"--fixture", "testdata/base.yaml",
		"--include-members",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "Fund malaria response")
	assert.Contains(t, out, "Sector: 11")
}

func TestShowCommandMissingEntity(t *testing.T) {
	_, err := execute(t, "show", "actors", "999", "--fixture", "testdata/base.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTaxonomiesCommand(t *testing.T) {
	out, err := execute(t,
		"taxonomies",
		"--fixture", "testdata/base.yaml",
		"--list", "actors",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Sector")
	assert.Contains(t, out, "Civil society")
	assert.NotContains(t, out, "Status", "inapplicable taxonomy is excluded")
}

func TestOptionsCommand(t *testing.T) {
	out, err := execute(t,
		"options", "actors",
		"--fixture", "testdata/base.yaml",
		"--query", "cat=10",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Civil society")
	assert.Contains(t, out, "cat=10")
}

func TestScenarioCommand(t *testing.T) {
	out, err := execute(t, "scenario", "../harness/testdata/scenarios/actor_filters.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "actor_filters")
	assert.Contains(t, out, "queries ok")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
