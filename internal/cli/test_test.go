package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata"

const insertScenario = `name: cli_insert
items:
  - { id: a, model: A }
steps:
  - apply:
      insert: [{ id: b, model: B, index: 1 }]
expect:
  items:
    - { id: a, model: A }
    - { id: b, model: B }
  version: 1
`

func writeScenario(t *testing.T, dir, file, body string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), harnessScenarios)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Total)
	assert.Equal(t, 5, resp.Data.Passed)
	for _, sr := range resp.Data.Scenarios {
		assert.True(t, sr.Pass, "%s: %v", sr.Name, sr.Errors)
		assert.Equal(t, "match", sr.Golden, sr.Name)
	}
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios, "--filter", "sizer_*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ sizer_failure")
	assert.NotContains(t, out, "replace_all_diff")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandBadFilter(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert.yaml", insertScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_insert (no golden file)")

	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_insert (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "cli_insert.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), "scenario cli_insert\n")
	assert.Contains(t, string(golden), "final v1 [a=A(1x1) b=B(1x1)]")

	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_insert\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert.yaml", insertScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "cli_insert.golden"), []byte("stale\n"), 0644))

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ cli_insert")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandUnmetExpectation(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong.yaml", `name: wrong_version
items:
  - { id: a, model: A }
steps:
  - apply:
      remove: [a]
expect:
  version: 7
`)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_version")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nstepz: []\n")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "load:")
}
