package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/verifly/internal/compiler"
	"github.com/roach88/verifly/internal/ir"
)

// DefaultToken is the invocation token used when a scenario sets none.
const DefaultToken = "test-invocation"

// Scenario defines one invocation of a declared group and the assertions
// its trace must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Token is the invocation token recorded in the trace.
	// Defaults to DefaultToken so golden files stay stable.
	Token string `yaml:"token,omitempty"`

	// Groups are the declarations to merge. All must share one identity;
	// callbacks are merged in the order listed.
	Groups []ir.GroupSpec `yaml:"groups"`

	// FailAt names a flag whose body fails right after recording it.
	// "action" fails the wrapped action.
	FailAt string `yaml:"fail_at,omitempty"`

	// Assertions validate the trace and its outcome.
	// Supported types: trace_order, trace_contains, trace_count,
	// resolved_order, error.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace or the outcome of the invocation.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_order": flags appear in this relative order
	// - "trace_contains": flag appears at least once
	// - "trace_count": flag appears exactly Count times
	// - "resolved_order": resolution produced exactly Order
	// - "error": the invocation failed, with Contains in the message
	Type string `yaml:"type"`

	// Flag is used by trace_contains and trace_count.
	Flag string `yaml:"flag,omitempty"`

	// Flags is the expected relative order (trace_order).
	Flags []string `yaml:"flags,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Order is the expected resolved order (resolved_order).
	Order []string `yaml:"order,omitempty"`

	// Contains is an optional substring of the failure message (error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder    = "trace_order"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertResolvedOrder = "resolved_order"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Groups) == 0 {
		return fmt.Errorf("groups list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	identity := s.Groups[0].Identity
	for i, g := range s.Groups {
		if g.Identity != identity {
			return fmt.Errorf("groups[%d]: identity %q differs from %q; a scenario invokes one group", i, g.Identity, identity)
		}
		if errs := compiler.Validate(g); len(errs) > 0 {
			return fmt.Errorf("groups[%d]: %w", i, errs[0])
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceOrder:
		if len(a.Flags) == 0 {
			return fmt.Errorf("assertions[%d]: flags list is required for trace_order", index)
		}
	case AssertTraceContains:
		if a.Flag == "" {
			return fmt.Errorf("assertions[%d]: flag is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Flag == "" {
			return fmt.Errorf("assertions[%d]: flag is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertResolvedOrder:
		if a.Order == nil {
			return fmt.Errorf("assertions[%d]: order is required for resolved_order (use [] for none)", index)
		}
	case AssertError:
		// contains is optional
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
