package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidSpecs(t *testing.T) {
	dir := writeSpecDir(t, saveSpecs)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid (2 group(s), 1 identit(ies))")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	dir := writeSpecDir(t, saveSpecs)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Groups)
	assert.Equal(t, 1, resp.Data.Identities)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateUnknownPosition(t *testing.T) {
	dir := writeSpecDir(t, `
package specs

group: bad: callbacks: [{name: "a", position: "sideways"}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E122 group.bad.callbacks[0].position")
	assert.Contains(t, out, "sideways")
}

func TestValidateCompileError(t *testing.T) {
	dir := writeSpecDir(t, `
package specs

group: bad: callbacks: [{position: "before"}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E110 group.bad.callbacks[0].name: name is required")
}

func TestValidateCycle(t *testing.T) {
	dir := writeSpecDir(t, cyclicSpecs)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E130 group.loop")
	assert.Contains(t, out, "constraints form a cycle")
}

func TestValidateCollectsAllErrorsJSON(t *testing.T) {
	dir := writeSpecDir(t, `
package specs

group: one: callbacks: [{name: "", position: "before"}]
group: two: callbacks: [{name: "x", position: "before"}, {name: "x", position: "after"}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "E121", resp.Data.Errors[0].Code)
	assert.Equal(t, "group.one.callbacks[0].name", resp.Data.Errors[0].Field)
	assert.Equal(t, "E123", resp.Data.Errors[1].Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E121", resp.Error.Code)
}

func TestValidateNoGroups(t *testing.T) {
	dir := writeSpecDir(t, "package specs\n\nother: 1\n")

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E007")
}
