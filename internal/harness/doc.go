// Package harness runs conformance scenarios against the rpnmath engine.
//
// A scenario evaluates one or more programs in a single session and checks
// each outcome, the executor trace and the recorded history.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: while_counter
//	description: "Counts a variable up to three"
//	session: "test-session-001"
//	config:
//	  policy: versioned
//	  max_steps: 1000
//	steps:
//	  - program: "0 $0 = while $0 3 < $0 1 + $0 = end $0 ret/1"
//	    expect:
//	      value: 3
//	      bits: 8
//	  - program: "5 0 /"
//	    expect:
//	      error: DIVISION_BY_ZERO
//	assertions:
//	  - type: trace_count
//	    action: rewind
//	    count: 3
//	  - type: variable
//	    step: 1
//	    var: 0
//	    value: 3
//	  - type: history
//	    seq: 2
//	    error: DIVISION_BY_ZERO
//
// # Assertion Types
//
//   - trace_contains: an executor step with the action (and detail, if given)
//   - trace_order: actions appear in the given order
//   - trace_count: an action appears exactly N times
//   - variable: a variable slot after a step holds the value (and version)
//   - history: the recorded evaluation at seq has the value or error code
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a
// testutil.DeterministicClock and a fixed session id, so stored evaluation
// ids and traces are identical across runs. Traces are compared against
// golden files in testdata/golden with RunWithGolden.
package harness
