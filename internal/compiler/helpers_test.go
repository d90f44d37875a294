package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verifly/internal/ir"
)

// compileCUE compiles src and returns the value at path.
func compileCUE(t *testing.T, src, path string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

func cb(name, pos string, requires, insertBefore []string) ir.CallbackSpec {
	return ir.CallbackSpec{Name: name, Position: pos, Requires: requires, InsertBefore: insertBefore}
}

func list(names ...string) []string { return names }
