package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/verifly/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It is serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts the snapshot to a map for ir.MarshalCanonical.
// The spec hash is left out so that golden files do not churn when
// unrelated fields of a declaration change.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	inv := s.Result.Invocation

	steps := make([]any, len(s.Result.Steps))
	for i, step := range s.Result.Steps {
		m := map[string]any{
			"seq":   step.Seq,
			"kind":  step.Kind,
			"phase": step.Phase,
		}
		if step.Name != "" {
			m["name"] = step.Name
		}
		if step.Position != "" {
			m["position"] = step.Position
		}
		if step.Error != "" {
			m["error"] = step.Error
		}
		steps[i] = m
	}

	snapshot := map[string]any{
		"scenario_name":  s.ScenarioName,
		"token":          inv.ID,
		"group_identity": inv.GroupIdentity,
		"resolved_order": inv.ResolvedOrder,
		"status":         inv.Status,
		"seq":            inv.Seq,
		"trace":          s.Result.Trace,
		"steps":          steps,
	}
	if inv.Error != "" {
		snapshot["error"] = inv.Error
	}
	return snapshot
}

// MarshalSnapshot renders result as the canonical JSON stored in golden
// files.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden, the
// same layout GoldenPath uses for a scenario file under testdata/.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
