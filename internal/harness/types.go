package harness

import "github.com/roach88/verifly/internal/trace"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace holds the flags recorded on the tape, in order.
	Trace []string `json:"trace"`

	// Invocation is the summary written to the store.
	Invocation trace.Invocation `json:"invocation"`

	// Steps are the recorded enter/leave steps, read back from the store.
	Steps []trace.Step `json:"steps"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []string{},
		Steps:  []trace.Step{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the invocation itself failed, independent of
// whether the assertions passed.
func (r *Result) Failed() bool {
	return r.Invocation.Status == trace.StatusFailed
}
