package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Full flag trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, flag := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, flag)
	}

	return buf.String()
}

// assertTraceContains checks that flag was recorded at least once.
func assertTraceContains(result *Result, assertion Assertion) error {
	if slices.Contains(result.Trace, assertion.Flag) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("flag %s", assertion.Flag),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

// assertTraceOrder checks that flags appear in the specified order.
// Flags don't need to be consecutive (intervening flags are allowed).
func assertTraceOrder(result *Result, assertion Assertion) error {
	// first position of each expected flag, 1-indexed so 0 means missing
	positions := make(map[string]int)
	for i, flag := range result.Trace {
		if positions[flag] == 0 {
			positions[flag] = i + 1
		}
	}

	for _, flag := range assertion.Flags {
		if positions[flag] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all flags present: %v", assertion.Flags),
				Actual:   fmt.Sprintf("missing flag: %s", flag),
				Trace:    result.Trace,
			}
		}
	}

	for i := 1; i < len(assertion.Flags); i++ {
		prev := assertion.Flags[i-1]
		curr := assertion.Flags[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("flags in order: %v", assertion.Flags),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that flag was recorded exactly Count times.
func assertTraceCount(result *Result, assertion Assertion) error {
	count := 0
	for _, flag := range result.Trace {
		if flag == assertion.Flag {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Flag),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertResolvedOrder checks the resolved order exactly.
func assertResolvedOrder(result *Result, assertion Assertion) error {
	got := result.Invocation.ResolvedOrder
	if slices.Equal(got, assertion.Order) {
		return nil
	}
	return &AssertionError{
		Type:     AssertResolvedOrder,
		Expected: fmt.Sprintf("resolved order %v", assertion.Order),
		Actual:   fmt.Sprintf("resolved order %v", got),
		Trace:    result.Trace,
	}
}

// assertError checks that the invocation failed and, if Contains is set,
// that the failure message mentions it.
func assertError(result *Result, assertion Assertion) error {
	if !result.Failed() {
		return &AssertionError{
			Type:     AssertError,
			Expected: "invocation to fail",
			Actual:   "invocation succeeded",
			Trace:    result.Trace,
		}
	}
	if assertion.Contains != "" && !strings.Contains(result.Invocation.Error, assertion.Contains) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error containing %q", assertion.Contains),
			Actual:   fmt.Sprintf("error %q", result.Invocation.Error),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result, assertion)
		case AssertTraceContains:
			err = assertTraceContains(result, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		case AssertResolvedOrder:
			err = assertResolvedOrder(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
