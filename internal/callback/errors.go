package callback

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes callback errors.
type ErrorCode string

const (
	// ErrCodeIdentityMismatch indicates a merge of groups with different identities.
	ErrCodeIdentityMismatch ErrorCode = "IDENTITY_MISMATCH"

	// ErrCodeDuplicateName indicates a callback name already present in the group.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeCyclicConstraint indicates requires/insert_before constraints form a cycle.
	ErrCodeCyclicConstraint ErrorCode = "CYCLIC_CONSTRAINT"

	// ErrCodeInvalidCallback indicates a malformed callback definition.
	ErrCodeInvalidCallback ErrorCode = "INVALID_CALLBACK"
)

// Sentinels matched by errors.Is against an *Error of the same code.
var (
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrDuplicateName    = errors.New("duplicate callback name")
	ErrCyclicConstraint = errors.New("cyclic constraint")
	ErrInvalidCallback  = errors.New("invalid callback")
)

// Error is returned for every failure the engine itself detects. Failures
// raised by callback bodies are never wrapped in an Error.
//
// All of these signal programming errors in how a group was assembled;
// retrying with the same input fails the same way.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Group is the identity of the affected group.
	Group string

	// Names lists the callbacks involved, if any.
	Names []string
}

func (e *Error) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s: %s (group=%s)", e.Code, e.Message, e.Group)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the sentinel for e.Code.
func (e *Error) Unwrap() error {
	switch e.Code {
	case ErrCodeIdentityMismatch:
		return ErrIdentityMismatch
	case ErrCodeDuplicateName:
		return ErrDuplicateName
	case ErrCodeCyclicConstraint:
		return ErrCyclicConstraint
	case ErrCodeInvalidCallback:
		return ErrInvalidCallback
	}
	return nil
}

// CycleError reports constraints that admit no execution order.
//
// Cycles holds one closed path per strongly connected component, e.g.
// ["x", "y", "x"]. A self-referencing callback yields ["x", "x"].
type CycleError struct {
	Err    *Error
	Cycles [][]string
}

func (e *CycleError) Error() string { return e.Err.Error() }

// Unwrap returns the coded *Error so errors.As finds both types.
func (e *CycleError) Unwrap() error { return e.Err }

// IsCycleError returns true if err is a cyclic constraint error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCyclicConstraint)
}

// IsIdentityMismatch returns true if err came from merging groups with
// different identities.
func IsIdentityMismatch(err error) bool {
	return hasCode(err, ErrCodeIdentityMismatch)
}

// IsDuplicateName returns true if err came from adding an existing name.
func IsDuplicateName(err error) bool {
	return hasCode(err, ErrCodeDuplicateName)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func identityMismatch(left, right string) *Error {
	return &Error{
		Code:    ErrCodeIdentityMismatch,
		Message: fmt.Sprintf("only groups with one name could be merged (%q != %q)", left, right),
		Group:   left,
	}
}

func duplicateName(group, name string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateName,
		Message: fmt.Sprintf("callback %q is already defined", name),
		Group:   group,
		Names:   []string{name},
	}
}

func invalidCallback(name, msg string) *Error {
	e := &Error{Code: ErrCodeInvalidCallback, Message: msg}
	if name != "" {
		e.Message = fmt.Sprintf("%s: %s", name, msg)
		e.Names = []string{name}
	}
	return e
}

func cyclicConstraint(group string, cycles [][]string) *CycleError {
	paths := make([]string, len(cycles))
	var names []string
	for i, c := range cycles {
		paths[i] = strings.Join(c, " -> ")
		// closed paths repeat the first name at the end
		names = append(names, c[:len(c)-1]...)
	}
	return &CycleError{
		Err: &Error{
			Code:    ErrCodeCyclicConstraint,
			Message: "constraints form a cycle: " + strings.Join(paths, "; "),
			Group:   group,
			Names:   names,
		},
		Cycles: cycles,
	}
}
