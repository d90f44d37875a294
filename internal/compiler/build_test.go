package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/ir"
	"github.com/roach88/verifly/internal/testutil"
	"github.com/roach88/verifly/internal/trace"
)

func envelopeSpec() ir.GroupSpec {
	return ir.GroupSpec{Identity: "action", Callbacks: []ir.CallbackSpec{
		cb("foo", "before", nil, nil),
		cb("bar", "after", nil, nil),
		cb("baz", "around", nil, nil),
	}}
}

func TestBuildProgram_RecordsEnvelope(t *testing.T) {
	p, err := BuildProgram(envelopeSpec())
	require.NoError(t, err)

	tape, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"before_baz", "before_foo", "action", "after_bar", "after_baz"}, tape.Flags())
}

func TestBuild_ReturnsGroup(t *testing.T) {
	g, err := Build(envelopeSpec())
	require.NoError(t, err)
	assert.Equal(t, "action", g.Identity())
	assert.Equal(t, 3, g.Len())

	tape := trace.NewTape()
	require.NoError(t, g.Invoke(tape, nil))
	assert.Equal(t, []string{"before_baz", "before_foo", "after_bar", "after_baz"}, tape.Flags())
}

func TestBuildProgram_FailAt(t *testing.T) {
	tests := []struct {
		failAt string
		flags  []string
	}{
		{"before_baz", []string{"before_baz"}},
		{"before_foo", []string{"before_baz", "before_foo"}},
		{ActionFlag, []string{"before_baz", "before_foo", "action"}},
		{"after_bar", []string{"before_baz", "before_foo", "action", "after_bar"}},
		{"after_baz", []string{"before_baz", "before_foo", "action", "after_bar", "after_baz"}},
	}

	for _, tt := range tests {
		t.Run(tt.failAt, func(t *testing.T) {
			p, err := BuildProgram(envelopeSpec(), WithFailAt(tt.failAt))
			require.NoError(t, err)

			tape, err := p.Run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInjected))
			assert.Contains(t, err.Error(), tt.failAt)
			assert.Equal(t, tt.flags, tape.Flags())
		})
	}
}

func TestBuildProgram_FailAtUnknownFlagNeverFires(t *testing.T) {
	p, err := BuildProgram(envelopeSpec(), WithFailAt("before_nothing"))
	require.NoError(t, err)
	_, err = p.Run()
	assert.NoError(t, err)
}

func TestBuild_SameNamedMembers(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{
		cb("log", "before", nil, nil),
		cb("first", "before", nil, list("log")),
		cb("log", "after", nil, nil),
	}}

	p, err := BuildProgram(spec)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Group.Len())

	tape, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"before_first", "before_log", "action", "after_log"}, tape.Flags())
}

func TestBuild_InvalidSpec(t *testing.T) {
	_, err := Build(ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{cb("x", "sideways", nil, nil)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callbacks[0]")
	assert.Contains(t, err.Error(), "unknown position")

	_, err = Build(ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{cb("", "before", nil, nil)}})
	assert.True(t, errors.Is(err, callback.ErrInvalidCallback))
}

func TestBuild_Hooks(t *testing.T) {
	var resolved []string
	g, err := Build(envelopeSpec(), WithHooks(callback.Hooks{
		OnResolve: func(e callback.ResolveEvent) { resolved = e.Order },
	}))
	require.NoError(t, err)

	_, err = g.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "baz"}, resolved)
}

func TestBuildProgram_RecordedSteps(t *testing.T) {
	rec := testutil.NewRecorder("build")
	p, err := BuildProgram(envelopeSpec(), WithHooks(rec.Hooks()))
	require.NoError(t, err)

	_, err = p.Run()
	require.NoError(t, err)

	var got []string
	for _, s := range rec.Steps() {
		got = append(got, fmt.Sprintf("%d %s %s %s", s.Seq, s.Phase, s.Kind, s.Name))
	}
	assert.Equal(t, []string{
		"1 enter callback baz",
		"2 enter callback foo",
		"3 leave callback foo",
		"4 enter action ",
		"5 leave action ",
		"6 enter callback bar",
		"7 leave callback bar",
		"8 leave callback baz",
	}, got)

	inv := rec.Finish("action", "hash", nil)
	assert.Equal(t, "build-0001", inv.ID)
	assert.Equal(t, int64(9), inv.Seq)
	assert.Equal(t, []string{"foo", "bar", "baz"}, inv.ResolvedOrder)
}
