// Package harness runs declared callback groups against YAML scenarios.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	token: inv-0001          # optional, defaults to DefaultToken
//	groups:
//	  - label: save_base     # optional
//	    identity: save
//	    callbacks:
//	      - {name: bar, position: before}
//	      - {name: foo, position: before, requires: [bar]}
//	fail_at: before_bar      # optional
//	assertions:
//	  - type: trace_order
//	    flags: [before_bar, before_foo, action]
//	  - type: resolved_order
//	    order: [bar, foo]
//
// Every body of the built group records a flag on a trace.Tape:
// before_<name>, after_<name>, or both around the inner layers for an
// around callback. The wrapped action records "action".
//
// # Assertion Types
//
//   - trace_order: flags appear in the given relative order
//   - trace_contains: a flag appears at least once
//   - trace_count: a flag appears exactly N times
//   - resolved_order: resolution produced exactly the given names
//   - error: the invocation failed, optionally with a message substring
//
// # Deterministic Testing
//
// Every scenario runs with a fixed invocation token, a
// testutil.DeterministicClock and a fresh in-memory SQLite store. The
// invocation is written to the store and read back before assertions run,
// so the golden snapshot reflects exactly what `verifly trace` would show.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/ordering_constraints.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
