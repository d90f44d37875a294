package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/verifly/internal/ir"
)

// callbackFields lists the fields a callback declaration may carry.
var callbackFields = map[string]bool{
	"name":          true,
	"position":      true,
	"requires":      true,
	"insert_before": true,
}

// CompileGroup parses a CUE value into a GroupSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the group struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`group: save: { callbacks: [...] }`)
//	spec, err := CompileGroup(v.LookupPath(cue.ParsePath("group.save")))
func CompileGroup(v cue.Value) (*ir.GroupSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.GroupSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Label = unquoteLabel(labels[len(labels)-1].String())
	}
	spec.Identity = spec.Label

	// identity is optional
	if idVal := v.LookupPath(cue.ParsePath("identity")); idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return nil, &CompileError{Field: "identity", Message: "identity must be a string", Pos: idVal.Pos()}
		}
		spec.Identity = id
	}

	cbVal := v.LookupPath(cue.ParsePath("callbacks"))
	if !cbVal.Exists() {
		return nil, &CompileError{
			Field:   "callbacks",
			Message: "callbacks is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := cbVal.List()
	if err != nil {
		return nil, &CompileError{Field: "callbacks", Message: "callbacks must be a list", Pos: cbVal.Pos()}
	}

	spec.Callbacks = []ir.CallbackSpec{}
	for i := 0; iter.Next(); i++ {
		cb, err := parseCallback(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		spec.Callbacks = append(spec.Callbacks, cb)
	}

	return spec, nil
}

// parseCallback parses one entry of the callbacks list.
func parseCallback(v cue.Value, idx int) (ir.CallbackSpec, error) {
	var cb ir.CallbackSpec
	field := fmt.Sprintf("callbacks[%d]", idx)

	fields, err := v.Fields()
	if err != nil {
		return cb, &CompileError{Field: field, Message: "callback must be a struct", Pos: v.Pos()}
	}
	for fields.Next() {
		if !callbackFields[fields.Label()] {
			return cb, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown field %s", fields.Label()),
				Pos:     fields.Value().Pos(),
			}
		}
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return cb, &CompileError{Field: field + ".name", Message: "name is required", Pos: v.Pos()}
	}
	if cb.Name, err = nameVal.String(); err != nil {
		return cb, &CompileError{Field: field + ".name", Message: "name must be a string", Pos: nameVal.Pos()}
	}

	posVal := v.LookupPath(cue.ParsePath("position"))
	if !posVal.Exists() {
		return cb, &CompileError{Field: field + ".position", Message: "position is required", Pos: v.Pos()}
	}
	if cb.Position, err = posVal.String(); err != nil {
		return cb, &CompileError{Field: field + ".position", Message: "position must be a string", Pos: posVal.Pos()}
	}

	if cb.Requires, err = parseNameList(v, "requires", field); err != nil {
		return cb, err
	}
	if cb.InsertBefore, err = parseNameList(v, "insert_before", field); err != nil {
		return cb, err
	}
	return cb, nil
}

// parseNameList reads an optional field holding a string or a list of
// strings.
func parseNameList(v cue.Value, name, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil, nil
	}
	field = field + "." + name

	if s, err := val.String(); err == nil {
		return []string{s}, nil
	}

	iter, err := val.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a string or a list of strings", Pos: val.Pos()}
	}
	var names []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "list elements must be strings", Pos: iter.Value().Pos()}
		}
		names = append(names, s)
	}
	return names, nil
}

func unquoteLabel(s string) string {
	if strings.HasPrefix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
