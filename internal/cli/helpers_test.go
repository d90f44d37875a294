package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// saveSpecs declares one identity in two declarations. Merged order:
// bar, foo, audit.
const saveSpecs = `
package specs

group: save_base: {
	identity: "save"
	callbacks: [
		{name: "bar", position: "before"},
		{name: "foo", position: "before", requires: "bar"},
	]
}

group: save_extra: {
	identity: "save"
	callbacks: [
		{name: "audit", position: "after"},
	]
}
`

const cyclicSpecs = `
package specs

group: loop: callbacks: [
	{name: "a", position: "before", requires: "b"},
	{name: "b", position: "before", requires: "a"},
]
`

// writeSpecDir writes src as specs.cue in a fresh directory.
func writeSpecDir(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs.cue"), []byte(src), 0644))
	return dir
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
