// Package harness runs YAML scenarios against a live engine.
//
// A scenario names a CUE graph and a list of steps. Steps drive the engine
// exactly as client code would (listen, emit, send, close endpoints, start,
// shutdown); the harness then collects what each listener received and
// compares it with the expectations.
//
// # Scenario Format
//
//	name: prestart_delivery
//	description: "Values sent before start arrive after start"
//	graph: graphs/single.cue
//	steps:
//	  - listen: a
//	  - emit: a
//	  - send: {input: a, value: 42}
//	  - start: {}
//	expect:
//	  - signal: a
//	    values: [42]
//
// Graph paths are relative to the scenario file. Registration steps wait
// for the worker's acknowledgment, so every run of a scenario performs the
// same sequence of engine operations.
//
// # Collection
//
// After the last step the harness reads each listened signal until it has
// as many values as expected (or the timeout passes), then waits a short
// settle period so extra deliveries are caught too. Observations are
// numbered in listen order, then delivery order, so traces are
// deterministic.
//
// # Golden Files
//
// RunWithGolden stores the per-signal observations as canonical JSON in
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
