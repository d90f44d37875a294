package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInvocation_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadInvocation(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestListInvocations_DeterministicOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// written out of order; two share seq 2 and tie-break on id
	require.NoError(t, s.WriteInvocation(ctx, createTestInvocation("inv-c", "save", 3), nil))
	require.NoError(t, s.WriteInvocation(ctx, createTestInvocation("inv-b", "save", 2), nil))
	require.NoError(t, s.WriteInvocation(ctx, createTestInvocation("inv-a", "save", 2), nil))
	require.NoError(t, s.WriteInvocation(ctx, createTestInvocation("inv-z", "load", 1), nil))

	all, err := s.ListInvocations(ctx, "")
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, inv := range all {
		ids[i] = inv.ID
	}
	assert.Equal(t, []string{"inv-z", "inv-a", "inv-b", "inv-c"}, ids)

	saves, err := s.ListInvocations(ctx, "save")
	require.NoError(t, err)
	assert.Len(t, saves, 3)
	for _, inv := range saves {
		assert.Equal(t, "save", inv.GroupIdentity)
	}
}

func TestListInvocations_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListInvocations(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadSteps_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadSteps(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadSteps_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	steps := createTestSteps("inv-1", 1)
	steps[0], steps[1] = steps[1], steps[0]
	require.NoError(t, s.WriteInvocation(ctx, createTestInvocation("inv-1", "save", 3), steps))

	got, err := s.ReadSteps(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)
}
