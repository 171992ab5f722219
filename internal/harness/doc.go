// Package harness provides conformance testing for dispatch behavior.
//
// The harness loads CUE unit files into a fresh registry, makes the
// calls a scenario declares, and validates the returned values and the
// recorded trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	units:
//	  - path/to/unit.cue
//	calls:
//	  - invoke: combine
//	    args: [1, 2]
//	    expect:
//	      result: 3
//	      record: 0
//	  - invoke: Printer.print
//	    receiver: Printer
//	    args: [42]
//	    expect:
//	      result: "Number: 42"
//	  - invoke: combine
//	    args: [1, "b"]
//	    expect:
//	      no_match: true
//	assertions:
//	  - type: trace_count
//	    name: combine
//	    count: 2
//	  - type: trace_contains
//	    name: combine
//	    key: '{"kw":{},"pos":["int","string"]}'
//	    outcome: no_match
//
// A call's receiver names a registered type; the harness passes an
// instance of it as the leading argument. Arguments are plain YAML
// values: integers dispatch as int, floats as float, and so on.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: a resolution of the name appears with matching key,
//     outcome, and record index (only specified fields are checked)
//   - trace_order: names resolve in the specified relative order
//   - trace_count: the name resolves exactly N times
//   - cache_hits: exactly N resolutions of the name were cache hits
//   - registrations: the name registered exactly N implementations
//
// # Deterministic Testing
//
// Scenarios execute with sequential call tokens and a fresh logical
// clock, so the same scenario always produces a byte-identical trace.
// That makes the trace snapshot suitable for golden file comparison.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/combine.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
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
