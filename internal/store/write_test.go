package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verifly/internal/trace"
)

func TestWriteInvocation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inv := createTestInvocation("inv-1", "save", 3)
	steps := createTestSteps("inv-1", 1)
	require.NoError(t, s.WriteInvocation(ctx, inv, steps))

	got, err := s.ReadInvocation(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	gotSteps, err := s.ReadSteps(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, steps, gotSteps)
}

func TestWriteInvocation_FailedWithError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inv := createTestInvocation("inv-1", "save", 1)
	inv.Status = trace.StatusFailed
	inv.Error = "CYCLIC_CONSTRAINT: constraints form a cycle: x -> y -> x (group=save)"
	inv.ResolvedOrder = nil
	require.NoError(t, s.WriteInvocation(ctx, inv, nil))

	got, err := s.ReadInvocation(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, trace.StatusFailed, got.Status)
	assert.Equal(t, inv.Error, got.Error)
	assert.NotNil(t, got.ResolvedOrder)
	assert.Empty(t, got.ResolvedOrder)
}

func TestWriteInvocation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inv := createTestInvocation("inv-1", "save", 3)
	require.NoError(t, s.WriteInvocation(ctx, inv, createTestSteps("inv-1", 1)))

	// the second write differs but is ignored entirely
	changed := inv
	changed.Status = trace.StatusFailed
	require.NoError(t, s.WriteInvocation(ctx, changed, createTestSteps("inv-1", 20)))

	got, err := s.ReadInvocation(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, trace.StatusOK, got.Status)

	steps, err := s.ReadSteps(ctx, "inv-1")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestWriteInvocation_StepForOtherInvocationRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.WriteInvocation(ctx, createTestInvocation("inv-1", "save", 3), createTestSteps("inv-2", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to")

	_, err = s.ReadInvocation(ctx, "inv-1")
	assert.True(t, errors.Is(err, ErrNotFound), "transaction must roll back")
}

func TestWriteInvocation_InvalidStatus(t *testing.T) {
	s := createTestStore(t)
	inv := createTestInvocation("inv-1", "save", 1)
	inv.Status = "maybe"

	err := s.WriteInvocation(context.Background(), inv, nil)
	assert.Error(t, err)
}

func TestWriteInvocation_CanceledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WriteInvocation(ctx, createTestInvocation("inv-1", "save", 1), nil)
	assert.Error(t, err)
}
