package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), minimalYAML)
	writeFile(t, filepath.Join(dir, "a.yml"), minimalYAML)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "nested", "c.yaml"), minimalYAML)
	writeFile(t, filepath.Join(dir, GoldenDir, "skip.yaml"), minimalYAML)

	files, err := FindScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = FindScenarioFiles(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, files)

	_, err = FindScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")

	_, err = FindScenarioFiles(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("testdata", GoldenDir, "ordering_constraints.golden"),
		GoldenPath(filepath.Join("testdata", "ordering_constraints.yaml")))
}

func TestRunSuite_Testdata(t *testing.T) {
	files, err := FindScenarioFiles("testdata", "")
	require.NoError(t, err)

	result := RunSuite(files, SuiteOptions{})
	assert.Equal(t, len(files), result.Total)
	assert.Equal(t, len(files), result.Passed, "scenarios: %+v", result.Scenarios)
	assert.Zero(t, result.Failed)
}

func TestRunFile_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	writeFile(t, path, minimalYAML)

	// no golden yet: assertions alone decide
	sr := RunFile(path, SuiteOptions{})
	assert.True(t, sr.Pass, "errors: %v", sr.Errors)
	assert.False(t, sr.GoldenUpdated)
	_, err := os.Stat(GoldenPath(path))
	assert.True(t, os.IsNotExist(err))

	sr = RunFile(path, SuiteOptions{Update: true})
	assert.True(t, sr.Pass)
	assert.True(t, sr.GoldenUpdated)
	golden, err := os.ReadFile(GoldenPath(path))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"minimal"`)

	sr = RunFile(path, SuiteOptions{})
	assert.True(t, sr.Pass, "errors: %v", sr.Errors)

	writeFile(t, GoldenPath(path), `{"scenario_name":"stale"}`)
	sr = RunFile(path, SuiteOptions{})
	assert.False(t, sr.Pass)
	require.Len(t, sr.Errors, 1)
	assert.Contains(t, sr.Errors[0], "does not match golden file")
}

func TestRunFile_LoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "name: [unterminated")

	sr := RunFile(path, SuiteOptions{})
	assert.False(t, sr.Pass)
	assert.Equal(t, "broken.yaml", sr.Name)
	require.Len(t, sr.Errors, 1)
	assert.Contains(t, sr.Errors[0], "failed to load scenario")
}

func TestRunSuite_CountsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, good, minimalYAML)
	writeFile(t, bad, `
name: bad
description: expects a flag that is never recorded
groups:
  - identity: save
    callbacks: []
assertions:
  - type: trace_contains
    flag: before_missing
`)

	result := RunSuite([]string{bad, good}, SuiteOptions{})
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "bad", result.Scenarios[0].Name)
	assert.False(t, result.Scenarios[0].Pass)
	assert.True(t, result.Scenarios[1].Pass)
	assert.Nil(t, result.Scenarios[1].Errors)
}
