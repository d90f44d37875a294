package trace

import (
	"sync"

	"github.com/roach88/verifly/internal/callback"
)

// Invocation status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Step phases.
const (
	PhaseEnter = "enter"
	PhaseLeave = "leave"
)

// Invocation is the summary of one Invoke call.
type Invocation struct {
	ID            string   `json:"id"`
	GroupIdentity string   `json:"group_identity"`
	SpecHash      string   `json:"spec_hash"`
	ResolvedOrder []string `json:"resolved_order"`
	Status        string   `json:"status"`
	Error         string   `json:"error,omitempty"`
	Seq           int64    `json:"seq"`
}

// Step is one body entering or leaving.
type Step struct {
	InvocationID string `json:"invocation_id"`
	Seq          int64  `json:"seq"`
	Kind         string `json:"kind"`
	Name         string `json:"name,omitempty"`
	Position     string `json:"position,omitempty"`
	Phase        string `json:"phase"`
	Error        string `json:"error,omitempty"`
}

// Recorder captures the steps of a single invocation through
// callback.Hooks. Attach Hooks() to a group, Invoke it once, then call
// Finish.
type Recorder struct {
	clock Sequencer
	token string

	mu         sync.Mutex
	order      []string
	resolveErr error
	steps      []Step
}

// NewRecorder draws an invocation token from gen. Steps and the finished
// invocation are stamped with clock.
func NewRecorder(gen TokenGenerator, clock Sequencer) *Recorder {
	return &Recorder{
		clock: clock,
		token: gen.Generate(),
	}
}

// Token returns the invocation token.
func (r *Recorder) Token() string { return r.token }

// Hooks returns the observers to attach to the group being recorded.
func (r *Recorder) Hooks() callback.Hooks {
	return callback.Hooks{
		OnResolve: r.onResolve,
		OnEnter: func(e callback.Event) {
			r.step(e, PhaseEnter)
		},
		OnLeave: func(e callback.Event) {
			r.step(e, PhaseLeave)
		},
	}
}

func (r *Recorder) onResolve(e callback.ResolveEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append([]string(nil), e.Order...)
	r.resolveErr = e.Err
}

func (r *Recorder) step(e callback.Event, phase string) {
	s := Step{
		InvocationID: r.token,
		Seq:          r.clock.Next(),
		Kind:         string(e.Kind),
		Name:         e.Name,
		Phase:        phase,
	}
	if e.Kind == callback.KindCallback {
		s.Position = e.Position.String()
	}
	if e.Err != nil {
		s.Error = e.Err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
}

// Steps returns recorded steps in seq order. Never nil.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Order returns the resolved order seen by the last resolution. Empty if
// resolution failed.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Finish summarizes the invocation. err is the value Invoke returned.
func (r *Recorder) Finish(groupIdentity, specHash string, err error) Invocation {
	inv := Invocation{
		ID:            r.token,
		GroupIdentity: groupIdentity,
		SpecHash:      specHash,
		ResolvedOrder: r.Order(),
		Status:        StatusOK,
		Seq:           r.clock.Next(),
	}
	if err != nil {
		inv.Status = StatusFailed
		inv.Error = err.Error()
	}
	return inv
}
