package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/verifly/internal/compiler"
	"github.com/roach88/verifly/internal/ir"
	"github.com/roach88/verifly/internal/logging"
	"github.com/roach88/verifly/internal/store"
	"github.com/roach88/verifly/internal/testutil"
	"github.com/roach88/verifly/internal/trace"
)

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and a fixed token.
type Harness struct {
	store    *store.Store
	clock    *testutil.DeterministicClock
	tokens   *trace.FixedGenerator
	logger   *slog.Logger
	specHash string
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and the built group.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Merge the scenario's groups and build them into a recording program
//  2. Invoke it once, recording every step
//  3. Write the invocation to the store and read it back
//  4. Evaluate assertions against the stored trace
//
// A failed invocation is a normal outcome; it fails the result only if no
// error assertion expects it. Run itself returns an error only when the
// scenario cannot be executed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := scenario.Token
	if token == "" {
		token = DefaultToken
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		tokens: trace.NewFixedGenerator(token),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	merged := compiler.MergeByIdentity(scenario.Groups)
	if len(merged) != 1 {
		return nil, fmt.Errorf("scenario %q: expected one group identity, got %d", scenario.Name, len(merged))
	}
	spec := merged[0]

	h.specHash, err = ir.SpecHash(spec)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	result, err := h.execute(context.Background(), spec, scenario.FailAt)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	if result.Failed() && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("unexpected failure: %s", result.Invocation.Error))
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute invokes spec once and returns what the store holds for it.
func (h *Harness) execute(ctx context.Context, spec ir.GroupSpec, failAt string) (*Result, error) {
	rec := trace.NewRecorder(h.tokens, h.clock)

	program, err := compiler.BuildProgram(spec,
		compiler.WithFailAt(failAt),
		compiler.WithLogger(h.logger),
		compiler.WithHooks(rec.Hooks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build group: %w", err)
	}

	tape, runErr := program.Run()
	inv := rec.Finish(spec.Identity, h.specHash, runErr)

	if err := h.store.WriteInvocation(ctx, inv, rec.Steps()); err != nil {
		return nil, fmt.Errorf("failed to write invocation: %w", err)
	}

	stored, err := h.store.ReadInvocation(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read invocation: %w", err)
	}
	steps, err := h.store.ReadSteps(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read steps: %w", err)
	}

	h.logger.Info("scenario invoked",
		"group", spec.Identity,
		"invocation_id", inv.ID,
		"status", inv.Status,
		"steps", len(steps),
	)

	result := NewResult()
	result.Trace = tape.Flags()
	result.Invocation = stored
	result.Steps = steps
	return result, nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
