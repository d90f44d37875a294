package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verifly/internal/callback"
)

func recordedGroup(t *testing.T, rec *Recorder) *callback.Group[*Tape] {
	t.Helper()
	g := callback.NewGroup[*Tape]("save", callback.WithHooks(rec.Hooks()))
	require.NoError(t, g.Around("tx", func(tp *Tape, next func() error) error {
		tp.Record("before_tx")
		if err := next(); err != nil {
			return err
		}
		tp.Record("after_tx")
		return nil
	}))
	require.NoError(t, g.Before("check", func(tp *Tape) error {
		tp.Record("before_check")
		return nil
	}))
	return g
}

func TestRecorder_Success(t *testing.T) {
	rec := NewRecorder(NewFixedGenerator("inv-1"), NewClock())
	g := recordedGroup(t, rec)

	err := g.Invoke(NewTape(), func() error { return nil })
	require.NoError(t, err)

	steps := rec.Steps()
	require.Len(t, steps, 6)
	assert.Equal(t, Step{InvocationID: "inv-1", Seq: 1, Kind: "callback", Name: "tx", Position: "around", Phase: PhaseEnter}, steps[0])
	assert.Equal(t, Step{InvocationID: "inv-1", Seq: 5, Kind: "action", Phase: PhaseLeave}, steps[4])
	assert.Equal(t, "tx", steps[5].Name)
	assert.Equal(t, PhaseLeave, steps[5].Phase)

	inv := rec.Finish("save", "abc", nil)
	assert.Equal(t, Invocation{
		ID:            "inv-1",
		GroupIdentity: "save",
		SpecHash:      "abc",
		ResolvedOrder: []string{"tx", "check"},
		Status:        StatusOK,
		Seq:           7,
	}, inv)
}

func TestRecorder_Failure(t *testing.T) {
	rec := NewRecorder(NewFixedGenerator("inv-2"), NewClock())
	g := recordedGroup(t, rec)

	boom := errors.New("boom")
	err := g.Invoke(NewTape(), func() error { return boom })
	require.ErrorIs(t, err, boom)

	steps := rec.Steps()
	var failed []Step
	for _, s := range steps {
		if s.Error != "" {
			failed = append(failed, s)
		}
	}
	require.Len(t, failed, 2, "action and the enclosing around both leave with the error")
	assert.Equal(t, "action", failed[0].Kind)
	assert.Equal(t, "tx", failed[1].Name)

	inv := rec.Finish("save", "abc", err)
	assert.Equal(t, StatusFailed, inv.Status)
	assert.Equal(t, "boom", inv.Error)
}

func TestRecorder_ResolutionFailure(t *testing.T) {
	rec := NewRecorder(NewFixedGenerator("inv-3"), NewClock())
	g := callback.NewGroup[*Tape]("save", callback.WithHooks(rec.Hooks()))
	noop := func(*Tape) error { return nil }
	require.NoError(t, g.Before("x", noop, callback.Requires("y")))
	require.NoError(t, g.Before("y", noop, callback.Requires("x")))

	err := g.Invoke(NewTape(), nil)
	require.True(t, callback.IsCycleError(err))

	assert.Empty(t, rec.Steps())
	inv := rec.Finish("save", "abc", err)
	assert.Empty(t, inv.ResolvedOrder)
	assert.NotNil(t, inv.ResolvedOrder)
	assert.Contains(t, inv.Error, "CYCLIC_CONSTRAINT")
	assert.Equal(t, int64(1), inv.Seq)
}
