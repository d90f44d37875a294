package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBadGroups = `
package specs

group: first: callbacks: [{position: "before"}]
group: second: callbacks: "nope"
`

func TestLoadSpecs(t *testing.T) {
	dir := writeSpecDir(t, saveSpecs)

	result, errs := LoadSpecs(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "save_base", result.Groups[0].Label)
	assert.Equal(t, "save_extra", result.Groups[1].Label)

	require.Len(t, result.Merged, 1)
	assert.Equal(t, "save", result.Merged[0].Identity)
	assert.Len(t, result.Merged[0].Callbacks, 3)
}

func TestLoadSpecs_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte(`
package specs

group: a: {identity: "save", callbacks: [{name: "x", position: "before"}]}
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte(`
package specs

group: b: {identity: "save", callbacks: [{name: "y", position: "after"}]}
`), 0644))

	result, errs := LoadSpecs(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Groups, 2)
	require.Len(t, result.Merged, 1)
}

func TestLoadSpecs_FailFastStopsAtFirstError(t *testing.T) {
	dir := writeSpecDir(t, twoBadGroups)

	result, errs := LoadSpecs(dir, LoadModeFailFast)
	require.NotNil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, ErrCodeInvalidGroup, loadErr.Code)
	assert.Equal(t, "group.first.callbacks[0].name", loadErr.Field)
	assert.Equal(t, "name is required", loadErr.Message)
}

func TestLoadSpecs_CollectAll(t *testing.T) {
	dir := writeSpecDir(t, twoBadGroups)

	_, errs := LoadSpecs(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)

	var second *LoadError
	require.True(t, errors.As(errs[1], &second))
	assert.Equal(t, "group.second.callbacks", second.Field)
}

func TestLoadSpecs_Errors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{"not found", func(t *testing.T) string { return "/nonexistent/specs" }, ErrCodeNotFound},
		{"not a directory", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "file.cue")
			require.NoError(t, os.WriteFile(path, []byte("package specs\n"), 0644))
			return path
		}, ErrCodeNotFound},
		{"no files", func(t *testing.T) string { return t.TempDir() }, ErrCodeNoFiles},
		{"conflicting values", func(t *testing.T) string {
			return writeSpecDir(t, "package specs\n\nx: 1\nx: 2\n")
		}, ErrCodeBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errs := LoadSpecs(tt.dir(t), LoadModeCollectAll)
			assert.Nil(t, result)
			require.Len(t, errs, 1)

			var loadErr *LoadError
			require.True(t, errors.As(errs[0], &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadSpecs_NoGroups(t *testing.T) {
	dir := writeSpecDir(t, "package specs\n\nother: 1\n")

	result, errs := LoadSpecs(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNoGroups)
}

func TestLoadError_Format(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E003: no CUE files found in x", err.Error())
}

func TestLoadForCommand_WrapsAsCommandError(t *testing.T) {
	_, err := loadForCommand(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load specs")
}
