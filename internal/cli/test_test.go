package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: counts
schema:
  - CREATE TABLE t (id INTEGER PRIMARY KEY, cat TEXT)
mappers:
  t: {table: t}
setup:
  - mapper: t
    rows: [{cat: a}, {cat: b}]
flow:
  - op: count
    mapper: t
    expect: {count: 2}
`

const failingScenario = `name: wrong_count
schema:
  - CREATE TABLE t (id INTEGER PRIMARY KEY, cat TEXT)
mappers:
  t: {table: t}
flow:
  - op: count
    mapper: t
    expect: {count: 3}
`

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--format", format, "test"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandPassingAndGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "counts.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counts")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "counts.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event": "before.find"`)

	_, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, "trace matches the regenerated golden file")

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "counts.yaml", passingScenario)
	writeScenario(t, dir, "wrong_count.yml", failingScenario)
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 2, resp.Data.Failed)

	byName := map[string]ScenarioResult{}
	for _, s := range resp.Data.Scenarios {
		byName[s.Name] = s
	}
	assert.True(t, byName["counts"].Pass)
	require.Contains(t, byName, "broken")
	assert.Contains(t, byName["broken"].Errors[0], "failed to load scenario")
	require.Contains(t, byName, "wrong_count")
	assert.Contains(t, byName["wrong_count"].Errors[0], "expected count 3, got 0")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "sync-a.yaml", "")
	writeScenario(t, dir, "sync-b.yml", "")
	writeScenario(t, dir, "create.yaml", "")
	writeScenario(t, dir, "notes.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "sync-*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sync-a.yaml"), filepath.Join(dir, "sync-b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "counts.golden"),
		goldenFilePath(filepath.Join("scenarios", "counts.yaml"), "counts"),
	)
}
