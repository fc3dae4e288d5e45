// Package harness runs testbench scenarios against the simulator.
//
// A scenario is a YAML file naming a CUE circuit, the stimulus to apply and
// what the run must produce:
//
//	name: and2_truth
//	description: AND output follows its inputs one tick later
//	circuit: ../circuits/and2.cue
//	stimulus:
//	  - {at: 0, net: a, value: "1"}
//	  - {at: 0, net: b, value: "1"}
//	expect:
//	  state: idle
//	assertions:
//	  - {type: final_value, net: y, value: "1"}
//	  - {type: value_at, net: y, at: 0, value: "x"}
//
// Unknown fields are rejected, so a misspelled key fails loudly instead of
// being ignored.
//
// # Deterministic Testing
//
// Each scenario runs in a fresh engine, so the same scenario always
// produces the same trace. The harness uses:
//   - Fixed run ids (from scenario.run_id or "test-run-default")
//   - A discarding logger unless one is configured
//   - An optional store; without one nothing touches the file system
//
// Traces are compared against golden files as canonical JSON (see
// RunWithGolden), so a golden diff is a behavior change.
package harness
