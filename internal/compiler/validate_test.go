package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verifly/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{
		cb("a", "before", nil, nil),
		cb("b", "after", list("a"), nil),
		cb("c", "around", nil, list("a")),
	}}
	assert.Empty(t, Validate(spec))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	spec := ir.GroupSpec{Identity: " ", Callbacks: []ir.CallbackSpec{
		cb("a", "before", nil, nil),
		cb("", "before", nil, nil),
		cb("a", "during", list(""), list("x", "")),
	}}

	errs := Validate(spec)
	assert.Equal(t, []string{
		ErrEmptyIdentity,
		ErrEmptyName,
		ErrDuplicateName,
		ErrUnknownPosition,
		ErrEmptyConstraint,
		ErrEmptyConstraint,
	}, codes(errs))

	assert.Equal(t, "callbacks[2].name", errs[2].Field)
	assert.Contains(t, errs[2].Message, "callbacks[0]")
	assert.Equal(t, "callbacks[2].insert_before[1]", errs[5].Field)
	assert.Equal(t, "[E122] callbacks[2].position: unknown position \"during\": must be one of [before after around]", errs[3].Error())
}

func TestValidate_DuplicateAfterNormalization(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{
		cb("caf\u00e9", "before", nil, nil),
		cb("cafe\u0301", "after", nil, nil),
	}}
	assert.Equal(t, []string{ErrDuplicateName}, codes(Validate(spec)))
}

func TestCheckOrder(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{
		cb("foo", "before", list("bar"), nil),
		cb("bar", "before", list("bat"), nil),
		cb("baz", "before", nil, list("bar")),
		cb("bat", "around", nil, nil),
	}}

	order, verr := CheckOrder(spec)
	require.Nil(t, verr)
	assert.Equal(t, []string{"baz", "bat", "bar", "foo"}, order)
}

func TestCheckOrder_Cycle(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{
		cb("x", "before", list("y"), nil),
		cb("y", "before", list("x"), nil),
	}}

	_, verr := CheckOrder(spec)
	require.NotNil(t, verr)
	assert.Equal(t, ErrCyclicOrder, verr.Code)
	assert.Equal(t, "group.save", verr.Field)
	assert.Contains(t, verr.Message, "constraints form a cycle")
}

func TestCheckOrder_BuildFailure(t *testing.T) {
	spec := ir.GroupSpec{Identity: "save", Callbacks: []ir.CallbackSpec{cb("x", "sideways", nil, nil)}}

	_, verr := CheckOrder(spec)
	require.NotNil(t, verr)
	assert.Equal(t, ErrBuildFailed, verr.Code)
}
