package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/verifly/internal/trace"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInvocation returns an ok invocation with a two-name order.
func createTestInvocation(id, group string, seq int64) trace.Invocation {
	return trace.Invocation{
		ID:            id,
		GroupIdentity: group,
		SpecHash:      "test-hash",
		ResolvedOrder: []string{"a", "b"},
		Status:        trace.StatusOK,
		Seq:           seq,
	}
}

// createTestSteps returns an enter/leave pair for one before callback.
func createTestSteps(invocationID string, firstSeq int64) []trace.Step {
	return []trace.Step{
		{InvocationID: invocationID, Seq: firstSeq, Kind: "callback", Name: "a", Position: "before", Phase: trace.PhaseEnter},
		{InvocationID: invocationID, Seq: firstSeq + 1, Kind: "callback", Name: "a", Position: "before", Phase: trace.PhaseLeave},
	}
}
